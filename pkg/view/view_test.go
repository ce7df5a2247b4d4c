package view

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/oracle/layered"
	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/visibility"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(&strings.Builder{}, log.Options{Level: log.FatalLevel})
}

func scenario() *graph.Document {
	doc := &graph.Document{
		Arrange: "LR",
		Nodes: graph.NodeList{Children: []graph.Node{
			{ID: "start"},
			{ID: "parent", Children: []graph.Node{{ID: "child1"}, {ID: "child2"}}},
			{ID: "end"},
		}},
		Edges: []graph.Edge{
			{Source: "start", Target: "parent"},
			{Source: "parent", Target: "end"},
			{Source: "child1", Target: "child2"},
		},
	}
	graph.Normalize(doc)
	return doc
}

func newView(o oracle.Oracle, doc *graph.Document) *View {
	r := pipeline.NewRunner(o, "test", nil, nil, quietLogger())
	return New(r, doc, Options{Logger: quietLogger()})
}

func mustJSON(t *testing.T, m *compose.Model) string {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(data)
}

func TestToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	v := newView(layered.New(), scenario())

	collapsed, err := v.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := mustJSON(t, collapsed)
	if collapsed.Node("child1") != nil {
		t.Fatal("collapsed model should not contain child1")
	}

	expanded, err := v.Toggle(ctx, "parent")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if expanded.Node("child1") == nil || expanded.Edge("child1-child2") == nil {
		t.Error("expanded model should contain the children and their edge")
	}
	if got := expanded.Node("child1").ParentID; got != "parent" {
		t.Errorf("child1 parent = %q", got)
	}
	if !v.Visibility().Has("parent") {
		t.Error("parent should be in the visibility set")
	}

	again, err := v.Toggle(ctx, "parent")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if after := mustJSON(t, again); after != before {
		t.Errorf("round trip changed the model:\nbefore %s\nafter  %s", before, after)
	}
}

func TestToggleErrors(t *testing.T) {
	v := newView(layered.New(), scenario())
	ctx := context.Background()

	if _, err := v.Toggle(ctx, "ghost"); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("unknown node: err = %v", err)
	}
	if _, err := v.Toggle(ctx, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty id: err = %v", err)
	}
	if v.Visibility().Len() != 0 {
		t.Error("failed toggles must not change visibility")
	}
}

func TestOracleFailureKeepsModel(t *testing.T) {
	ctx := context.Background()
	var fail bool
	var mu sync.Mutex
	inner := layered.New()
	o := oracle.Func(func(ctx context.Context, req *oracle.Request) (*oracle.Node, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, stderrors.New("engine crashed")
		}
		return inner.Layout(ctx, req)
	})
	v := newView(o, scenario())

	good, err := v.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	mu.Lock()
	fail = true
	mu.Unlock()

	got, err := v.Toggle(ctx, "parent")
	if !errors.Is(err, errors.ErrCodeOracleFailure) {
		t.Fatalf("err = %v, want ORACLE_FAILURE", err)
	}
	if got != good || v.Model() != good {
		t.Error("previous model should be retained after an oracle failure")
	}
	if v.Diagnostics().Count(diag.OracleFailure) != 1 {
		t.Errorf("diagnostics = %v", v.Diagnostics())
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	inner := layered.New()

	o := oracle.Func(func(ctx context.Context, req *oracle.Request) (*oracle.Node, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		return inner.Layout(ctx, req)
	})
	v := newView(o, scenario())

	var published []*compose.Model
	v.OnModel(func(m *compose.Model) { published = append(published, m) })

	errc := make(chan error, 1)
	go func() {
		_, err := v.Refresh(ctx)
		errc <- err
	}()
	<-entered

	latest, err := v.Toggle(ctx, "parent")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	close(release)

	if err := <-errc; !errors.Is(err, errors.ErrCodeSuperseded) {
		t.Fatalf("stale refresh err = %v, want SUPERSEDED", err)
	}
	if v.Model() != latest {
		t.Error("stale result must not replace the latest model")
	}
	if v.Model().Node("child1") == nil {
		t.Error("latest model should be the expanded one")
	}
	if len(published) != 1 {
		t.Errorf("published %d models, want 1", len(published))
	}
	if v.Diagnostics().Count(diag.StaleResult) != 1 {
		t.Errorf("diagnostics = %v", v.Diagnostics())
	}
}

func TestActivateSideChannel(t *testing.T) {
	ctx := context.Background()
	v := newView(layered.New(), scenario())

	m, err := v.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !m.Node("parent").Activatable {
		t.Fatal("parent should be activatable")
	}
	m.Activate("parent")
	if v.Model().Node("child1") == nil {
		t.Error("activation should expand parent")
	}
}

func TestSetDocument(t *testing.T) {
	ctx := context.Background()
	v := New(pipeline.NewRunner(layered.New(), "test", nil, nil, quietLogger()), scenario(), Options{
		Expanded: visibility.New("parent"),
		Logger:   quietLogger(),
	})
	if _, err := v.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	doc := scenario()
	doc.Nodes.Children = append(doc.Nodes.Children, graph.Node{ID: "extra"})
	m, err := v.SetDocument(ctx, doc)
	if err != nil {
		t.Fatalf("SetDocument: %v", err)
	}
	if m.Node("extra") == nil || m.Node("child1") == nil {
		t.Error("reloaded model should contain the new node and keep parent expanded")
	}
	if _, err := v.SetDocument(ctx, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil document err = %v", err)
	}
	if v.ID() == "" {
		t.Error("view id should be set")
	}
}

func TestSetVisibility(t *testing.T) {
	ctx := context.Background()
	v := newView(layered.New(), scenario())

	m, err := v.SetVisibility(ctx, visibility.New("parent"))
	if err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}
	if m.Node("child2") == nil {
		t.Error("parent should be expanded")
	}

	m, err = v.SetVisibility(ctx, nil)
	if err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}
	if m.Node("child2") != nil || v.Visibility().Len() != 0 {
		t.Error("nil set should collapse everything")
	}
}

func TestSetDocumentFollowsArrange(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var dirs []graph.Direction
	inner := layered.New()
	o := oracle.Func(func(ctx context.Context, req *oracle.Request) (*oracle.Node, error) {
		mu.Lock()
		dirs = append(dirs, req.Options.Direction)
		mu.Unlock()
		return inner.Layout(ctx, req)
	})
	v := New(pipeline.NewRunner(o, "test", nil, nil, quietLogger()), scenario(), Options{
		Layout: oracle.Options{NodeNodeSpacing: 40},
		Logger: quietLogger(),
	})
	if _, err := v.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	doc := scenario()
	doc.Arrange = "TB"
	if _, err := v.SetDocument(ctx, doc); err != nil {
		t.Fatalf("SetDocument: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []graph.Direction{graph.DirectionRight, graph.DirectionDown}
	if len(dirs) != len(want) {
		t.Fatalf("layout calls = %d, want %d", len(dirs), len(want))
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("cycle %d direction = %q, want %q", i, dirs[i], want[i])
		}
	}
}

func TestToggleLongID(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("g", errors.MaxNodeIDLength+10)
	doc := &graph.Document{
		Nodes: graph.NodeList{Children: []graph.Node{
			{ID: long, Children: []graph.Node{{ID: "inside"}}},
		}},
	}
	graph.Normalize(doc)
	v := newView(layered.New(), doc)

	m, err := v.Toggle(ctx, long)
	if err != nil {
		t.Fatalf("Toggle(long id in document): %v", err)
	}
	if m.Node("inside") == nil {
		t.Error("group with a long id should expand")
	}

	if _, err := v.Toggle(ctx, long+"x"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("long unknown id: err = %v, want INVALID_INPUT", err)
	}
	if _, err := v.Toggle(ctx, "bad\x01id"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("control char id: err = %v, want INVALID_INPUT", err)
	}
}
