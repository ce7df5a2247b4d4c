package graphviz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/oracle"
)

// Engine is the name reported to caches and metrics.
const Engine = "graphviz"

// formatJSON selects Graphviz's JSON renderer.
const formatJSON graphviz.Format = "json"

// Oracle lays out requests with Graphviz dot.
type Oracle struct{}

// New returns a Graphviz oracle.
func New() *Oracle {
	return &Oracle{}
}

// Layout implements oracle.Oracle. Each call runs its own Graphviz instance.
func (o *Oracle) Layout(ctx context.Context, req *oracle.Request) (*oracle.Node, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil layout request")
	}
	dot := ToDOT(req)

	data, err := run(ctx, dot)
	if err != nil {
		return nil, err
	}

	root := oracle.Skeleton(req)
	if err := decode(data, root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOracleFailure, err, "graphviz output")
	}
	return root, nil
}

func run(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, formatJSON, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var _ oracle.Oracle = (*Oracle)(nil)
