package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestKindLevel(t *testing.T) {
	tests := []struct {
		kind Kind
		want log.Level
	}{
		{MalformedNode, log.WarnLevel},
		{DanglingEdge, log.WarnLevel},
		{DuplicateID, log.WarnLevel},
		{DegenerateEdge, log.DebugLevel},
		{MergedEdge, log.DebugLevel},
		{StaleResult, log.DebugLevel},
		{OracleFailure, log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSink(t *testing.T) {
	var s Sink
	if s.Len() != 0 {
		t.Fatalf("zero Sink should be empty, got %d", s.Len())
	}

	s.Add(DanglingEdge, "a-z", "target %q not found", "z")
	s.Add(DegenerateEdge, "c1-c2", "collapsed into %q", "g")
	s.Add(DanglingEdge, "q-a", "source %q not found", "q")

	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("Events() len = %d, want 3", len(events))
	}
	if events[0].Message != `target "z" not found` {
		t.Errorf("Message = %q", events[0].Message)
	}
	if got := events.Count(DanglingEdge); got != 2 {
		t.Errorf("Count(DanglingEdge) = %d, want 2", got)
	}
	if got := events.Filter(DegenerateEdge); len(got) != 1 || got[0].Subject != "c1-c2" {
		t.Errorf("Filter(DegenerateEdge) = %v", got)
	}
	if got := events.Subjects(DanglingEdge); strings.Join(got, ",") != "a-z,q-a" {
		t.Errorf("Subjects(DanglingEdge) = %v", got)
	}
}

func TestEventString(t *testing.T) {
	e := Event{Kind: MalformedNode, Message: "node without id"}
	if got := e.String(); got != "malformed_node: node without id" {
		t.Errorf("String() = %q", got)
	}
	e = Event{Kind: DuplicateID, Subject: "a", Message: "dropped"}
	if got := e.String(); got != "duplicate_id a: dropped" {
		t.Errorf("String() = %q", got)
	}
}

func TestEventsLog(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel})

	events := Events{
		{Kind: DanglingEdge, Subject: "a-z", Message: "endpoint not found"},
		{Kind: DegenerateEdge, Subject: "b-b", Message: "collapsed"},
	}
	events.Log(logger)

	out := buf.String()
	if !strings.Contains(out, "endpoint not found") {
		t.Errorf("warn event should be logged: %q", out)
	}
	if strings.Contains(out, "collapsed") {
		t.Errorf("debug event should be filtered at warn level: %q", out)
	}

	// nil logger is a no-op
	events.Log(nil)
}
