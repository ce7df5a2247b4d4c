package graph

import (
	"regexp"
	"strings"
)

// Normalize assigns a Role to every node in the document. It is called by the
// readers; documents built in code should call it before projection.
// Normalize is idempotent.
func Normalize(doc *Document) {
	doc.Walk(func(n *Node, _ int) bool {
		n.Role = Classify(n)
		return true
	})
}

// Classify decides the role of a single node from its id and value.
func Classify(n *Node) Role {
	if s := n.Value.String("role"); s != "" {
		if r, ok := ParseRole(s); ok {
			return r
		}
	}
	if isJoinID(n.ID) {
		return JoinMarker
	}
	class := strings.ToLower(n.Value.String("class"))
	if strings.Contains(class, "gate") || strings.Contains(class, "branch") {
		return Gate
	}
	if strings.EqualFold(n.Value.String("shape"), "diamond") {
		return Gate
	}
	return Ordinary
}

func isJoinID(id string) bool {
	last := id
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		last = id[i+1:]
	}
	return strings.HasSuffix(last, "join_id")
}

// =============================================================================
// Style hints
// =============================================================================

// DefaultFill is the background colour of nodes without a fill style.
const DefaultFill = "#fff"

var fillPattern = regexp.MustCompile(`fill:\s*([^;]+)`)

// FillColor extracts the fill colour from a CSS-like style string such as
// "fill:#e8f7e4;". It returns DefaultFill when none is present.
func FillColor(style string) string {
	m := fillPattern.FindStringSubmatch(style)
	if m == nil {
		return DefaultFill
	}
	if c := strings.TrimSpace(m[1]); c != "" {
		return c
	}
	return DefaultFill
}

// Fill returns the node's background colour from value.style.
func (n *Node) Fill() string {
	return FillColor(n.Value.String("style"))
}

// CornerRadius returns value.rx, or 0.
func (n *Node) CornerRadius() float64 {
	r, _ := n.Value.Number("rx")
	return r
}
