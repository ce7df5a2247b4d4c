package graph

import (
	"strings"
)

// =============================================================================
// Document
// =============================================================================

// Document is the input graph: a node forest and a flat edge list.
type Document struct {
	Arrange string   `json:"arrange,omitempty" yaml:"arrange,omitempty"`
	Nodes   NodeList `json:"nodes" yaml:"nodes"`
	Edges   []Edge   `json:"edges" yaml:"edges"`
}

// NodeList wraps the root nodes of a document.
type NodeList struct {
	Children []Node `json:"children" yaml:"children"`
}

// Roots returns the root nodes of the forest.
func (d *Document) Roots() []Node {
	return d.Nodes.Children
}

// Direction maps the arrange hint to a layout direction.
func (d *Document) Direction() Direction {
	return ParseArrange(d.Arrange)
}

// Walk calls fn for every node in depth-first pre-order, including nodes
// with an empty id. Returning false from fn skips the node's children.
func (d *Document) Walk(fn func(n *Node, depth int) bool) {
	var walk func(nodes []Node, depth int)
	walk = func(nodes []Node, depth int) {
		for i := range nodes {
			if fn(&nodes[i], depth) {
				walk(nodes[i].Children, depth+1)
			}
		}
	}
	walk(d.Nodes.Children, 0)
}

// NodeCount returns the number of nodes with a non-empty id, at any depth.
func (d *Document) NodeCount() int {
	n := 0
	d.Walk(func(node *Node, _ int) bool {
		if node.ID == "" {
			return false
		}
		n++
		return true
	})
	return n
}

// Find returns the first node with the given id in pre-order, or nil.
func (d *Document) Find(id string) *Node {
	var found *Node
	d.Walk(func(n *Node, _ int) bool {
		if found != nil || n.ID == "" {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// GroupIDs returns the ids of all nodes that have children, in pre-order.
func (d *Document) GroupIDs() []string {
	var ids []string
	d.Walk(func(n *Node, _ int) bool {
		if n.ID == "" {
			return false
		}
		if n.HasChildren() {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}

// =============================================================================
// Node
// =============================================================================

// Node is a raw input node. Value carries the label and opaque style hints
// exactly as they appear in the source document.
type Node struct {
	ID       string `json:"id" yaml:"id"`
	Value    Value  `json:"value,omitempty" yaml:"value,omitempty"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`

	// Role is assigned by Normalize and is not part of the wire format.
	Role Role `json:"-" yaml:"-"`
}

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Label returns value.label. A node without a label key is labelled by its
// id; an explicitly empty label stays empty.
func (n *Node) Label() string {
	if v, ok := n.Value["label"]; ok {
		s, _ := v.(string)
		return s
	}
	return n.ID
}

// StyleHints returns the node's value without the label key. The returned
// map is a copy.
func (n *Node) StyleHints() map[string]any {
	if len(n.Value) == 0 {
		return nil
	}
	out := make(map[string]any, len(n.Value))
	for k, v := range n.Value {
		if k == "label" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Value is the opaque key-value payload of a node.
type Value map[string]any

// String returns the string value of key, or "" if absent or not a string.
func (v Value) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Number returns the numeric value of key. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
func (v Value) Number(key string) (float64, bool) {
	switch n := v[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a raw input edge. No uniqueness is guaranteed: duplicates and
// self-references may occur.
type Edge struct {
	Source string `json:"source_id" yaml:"source_id"`
	Target string `json:"target_id" yaml:"target_id"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// IsSelfLoop reports whether the edge was declared with source == target.
func (e Edge) IsSelfLoop() bool {
	return e.Source == e.Target
}

// EdgeID derives the identity of an edge from its endpoints.
func EdgeID(source, target string) string {
	return source + "-" + target
}

// LabelID derives the identity of an edge label from its endpoints.
func LabelID(source, target string) string {
	return "label-" + source + "-" + target
}

// =============================================================================
// Role
// =============================================================================

// Role is the display role of a node. It selects default dimensions.
type Role uint8

// Node roles.
const (
	Ordinary Role = iota
	JoinMarker
	Gate
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case JoinMarker:
		return "join"
	case Gate:
		return "gate"
	default:
		return "ordinary"
	}
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name; unknown names decode as Ordinary.
func (r *Role) UnmarshalText(b []byte) error {
	*r, _ = ParseRole(string(b))
	return nil
}

// ParseRole parses a role name. The second result is false for unknown
// names, in which case Ordinary is returned.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordinary", "":
		return Ordinary, s != ""
	case "join", "join_marker", "joinmarker":
		return JoinMarker, true
	case "gate":
		return Gate, true
	}
	return Ordinary, false
}
