package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestview/pkg/cache"
	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/oracle/layered"
	"github.com/matzehuels/nestview/pkg/visibility"
)

const workflow = "../graph/testdata/workflow.yaml"

func quietLogger() *log.Logger {
	return log.NewWithOptions(&strings.Builder{}, log.Options{Level: log.FatalLevel})
}

func newTestRunner(o oracle.Oracle) *Runner {
	return NewRunner(o, "test", nil, nil, quietLogger())
}

func scenario() *graph.Document {
	doc := &graph.Document{
		Arrange: "TB",
		Nodes: graph.NodeList{Children: []graph.Node{
			{ID: "start"},
			{ID: "parent", Children: []graph.Node{{ID: "child1"}, {ID: "child2"}}},
			{ID: "end"},
		}},
		Edges: []graph.Edge{
			{Source: "start", Target: "parent"},
			{Source: "parent", Target: "end"},
		},
	}
	graph.Normalize(doc)
	return doc
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateEngine(t *testing.T) {
	for _, e := range Engines {
		if err := ValidateEngine(e); err != nil {
			t.Errorf("ValidateEngine(%q) = %v", e, err)
		}
	}
	if err := ValidateEngine("elk"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ValidateEngine(elk) = %v, want INVALID_INPUT", err)
	}
}

func TestRenderOptionsDefaults(t *testing.T) {
	var o RenderOptions
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if !slices.Equal(o.Formats, []string{FormatSVG}) || o.Theme == "" || o.PNGScale != DefaultPNGScale {
		t.Errorf("defaults = %+v", o)
	}

	bad := RenderOptions{Theme: "neon"}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("unknown theme should fail")
	}
}

func TestExecuteCollapsedScenario(t *testing.T) {
	r := newTestRunner(layered.New())
	res, err := r.Execute(context.Background(), scenario(), visibility.New(), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var nodes, edges []string
	for _, n := range res.Model.Nodes {
		nodes = append(nodes, n.ID)
	}
	for _, e := range res.Model.Edges {
		edges = append(edges, e.ID)
	}
	slices.Sort(nodes)
	slices.Sort(edges)
	if !slices.Equal(nodes, []string{"end", "parent", "start"}) {
		t.Errorf("nodes = %v", nodes)
	}
	if !slices.Equal(edges, []string{"parent-end", "start-parent"}) {
		t.Errorf("edges = %v", edges)
	}
	if res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestExecuteDirectionFromDocument(t *testing.T) {
	var seen graph.Direction
	o := oracle.Func(func(_ context.Context, req *oracle.Request) (*oracle.Node, error) {
		seen = req.Options.Direction
		return oracle.Skeleton(req), nil
	})
	if _, err := newTestRunner(o).Execute(context.Background(), scenario(), nil, Options{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if seen != graph.DirectionDown {
		t.Errorf("direction = %q, want DOWN from arrange TB", seen)
	}
}

func TestExecuteWorkflowDiagnostics(t *testing.T) {
	doc, err := LoadDocument(workflow)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	res, err := newTestRunner(layered.New()).Execute(context.Background(), doc, visibility.New(), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Diagnostics.Count(diag.DegenerateEdge) == 0 {
		t.Error("collapsed workflow should report degenerate edges")
	}
	if res.Model.Node("etl") == nil || !res.Model.Node("etl").Activatable {
		t.Error("collapsed etl should be present and activatable")
	}
}

func TestLayoutErrors(t *testing.T) {
	req := oracle.NewRequest(newTestRunner(nil).Projector.ProjectDocument(scenario(), nil), oracle.Options{})

	tests := []struct {
		name string
		o    oracle.Oracle
		code errors.Code
	}{
		{"failure", oracle.Func(func(context.Context, *oracle.Request) (*oracle.Node, error) {
			return nil, context.Canceled
		}), errors.ErrCodeOracleFailure},
		{"nil result", oracle.Func(func(context.Context, *oracle.Request) (*oracle.Node, error) {
			return nil, nil
		}), errors.ErrCodeOracleFailure},
		{"panic", oracle.Func(func(context.Context, *oracle.Request) (*oracle.Node, error) {
			panic("boom")
		}), errors.ErrCodeOracleFailure},
		{"timeout", oracle.Func(func(ctx context.Context, _ *oracle.Request) (*oracle.Node, error) {
			time.Sleep(time.Second)
			return nil, nil
		}), errors.ErrCodeTimeout},
		{"no oracle", nil, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(tt.o)
			r.Timeout = 20 * time.Millisecond
			_, err := r.Layout(context.Background(), req)
			if !errors.Is(err, tt.code) {
				t.Errorf("Layout error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRenderCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(layered.New(), layered.Engine, fc, nil, quietLogger())
	ctx := context.Background()

	res, err := r.Execute(ctx, scenario(), nil, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	opts := RenderOptions{Formats: []string{FormatSVG, FormatJSON}}
	first, hit, err := r.RenderWithCacheInfo(ctx, res.Model, opts)
	if err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	second, hit, err := r.RenderWithCacheInfo(ctx, res.Model, opts)
	if err != nil || !hit {
		t.Fatalf("second render: hit=%v err=%v", hit, err)
	}
	if string(first[FormatSVG]) != string(second[FormatSVG]) {
		t.Error("cached SVG differs")
	}
	if !strings.HasPrefix(string(first[FormatSVG]), "<svg") {
		t.Error("svg artifact does not start with <svg")
	}

	var decoded struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(first[FormatJSON], &decoded); err != nil || len(decoded.Nodes) != 3 {
		t.Errorf("json artifact: %d nodes, err %v", len(decoded.Nodes), err)
	}

	if _, err := r.Render(ctx, res.Model, RenderOptions{Formats: []string{"gif"}}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("invalid format error = %v", err)
	}
}

func TestExpandSet(t *testing.T) {
	doc := scenario()

	vis, err := ExpandSet(doc, []string{"parent"})
	if err != nil || !vis.Has("parent") {
		t.Fatalf("ExpandSet = %v, %v", vis, err)
	}
	all, err := ExpandSet(doc, []string{"*"})
	if err != nil || !slices.Equal(all.IDs(), []string{"parent"}) {
		t.Errorf("ExpandSet(*) = %v, %v", all.IDs(), err)
	}
	if _, err := ExpandSet(doc, []string{"ghost"}); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("ExpandSet(ghost) error = %v", err)
	}
	if _, err := ExpandSet(doc, []string{""}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ExpandSet(\"\") error = %v", err)
	}
}

func TestNewOracle(t *testing.T) {
	for _, engine := range []string{"", EngineLayered, EngineGraphviz} {
		if _, err := NewOracle(engine); err != nil {
			t.Errorf("NewOracle(%q) = %v", engine, err)
		}
	}
	if _, err := NewOracle("elk"); err == nil {
		t.Error("unknown engine should fail")
	}
	o, err := NewCachedOracle(EngineLayered, cache.NewNullCache(), nil, 0)
	if err != nil {
		t.Fatalf("NewCachedOracle: %v", err)
	}
	if _, ok := o.(*oracle.Cached); !ok {
		t.Errorf("NewCachedOracle returned %T", o)
	}
}
