// Package diag defines the structured diagnostics emitted while projecting,
// laying out and flattening a graph view.
//
// None of the problems described here are fatal. Malformed input is skipped,
// unresolvable edges are dropped and the view keeps rendering; every such
// decision is recorded as an [Event] and returned next to the result so hosts
// and tests can inspect it without capturing log output.
//
// # Kinds
//
//	diag.MalformedNode   // node without an id, subtree skipped
//	diag.DanglingEdge    // endpoint not resolvable to a visible node
//	diag.DegenerateEdge  // collapse turned an edge into a self-loop
//	diag.MergedEdge      // collapse produced a parallel edge, folded
//	diag.DuplicateID     // second node or edge with an id already used
//	diag.OracleFailure   // layout call failed, previous model retained
//	diag.StaleResult     // superseded layout response discarded
//
// # Usage
//
//	var sink diag.Sink
//	sink.Add(diag.DanglingEdge, "a-z", "target %q not found", "z")
//	events := sink.Events()
//	events.Log(logger)
package diag

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Kind classifies a diagnostic event.
type Kind string

// Diagnostic kinds.
const (
	MalformedNode  Kind = "malformed_node"
	DanglingEdge   Kind = "dangling_edge"
	DegenerateEdge Kind = "degenerate_edge"
	MergedEdge     Kind = "merged_edge"
	DuplicateID    Kind = "duplicate_id"
	OracleFailure  Kind = "oracle_failure"
	StaleResult    Kind = "stale_result"
)

// Kinds lists every diagnostic kind in a stable order.
var Kinds = []Kind{
	MalformedNode,
	DanglingEdge,
	DegenerateEdge,
	MergedEdge,
	DuplicateID,
	OracleFailure,
	StaleResult,
}

// Level returns the log level events of this kind are reported at.
// Expected outcomes of collapsing (degenerate and merged edges) and
// discarded stale responses are debug-level; input problems are warnings.
func (k Kind) Level() log.Level {
	switch k {
	case DegenerateEdge, MergedEdge, StaleResult:
		return log.DebugLevel
	case OracleFailure:
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// Event is a single diagnostic record. Subject is the id of the node or edge
// the event is about; it may be empty for malformed nodes.
type Event struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// String formats the event as "kind subject: message".
func (e Event) String() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Subject, e.Message)
}

// Events is an ordered sequence of diagnostic events.
type Events []Event

// Filter returns the events of the given kind, preserving order.
func (es Events) Filter(kind Kind) Events {
	var out Events
	for _, e := range es {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of events of the given kind.
func (es Events) Count(kind Kind) int {
	n := 0
	for _, e := range es {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Subjects returns the subjects of the events of the given kind.
func (es Events) Subjects(kind Kind) []string {
	var out []string
	for _, e := range es {
		if e.Kind == kind {
			out = append(out, e.Subject)
		}
	}
	return out
}

// Log writes every event to logger at its kind's level.
func (es Events) Log(logger *log.Logger) {
	if logger == nil {
		return
	}
	for _, e := range es {
		logger.Log(e.Kind.Level(), e.Message, "kind", string(e.Kind), "subject", e.Subject)
	}
}

// Sink accumulates events in the order they are added.
// The zero value is ready to use. A Sink is not safe for concurrent use;
// each projection or flatten call owns its own.
type Sink struct {
	events Events
}

// Add records an event with a formatted message.
func (s *Sink) Add(kind Kind, subject, format string, args ...any) {
	s.events = append(s.events, Event{
		Kind:    kind,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	})
}

// Events returns the recorded events.
func (s *Sink) Events() Events {
	return s.events
}

// Len returns the number of recorded events.
func (s *Sink) Len() int {
	return len(s.events)
}
