// Package pipeline runs the project → layout → compose cycle.
//
// This package is the single place where the Visibility Projector, a layout
// oracle and the Flattening Composer are chained together. The CLI, the HTTP
// host and the stateful view all go through a [Runner], so diagnostics,
// logging, timeouts and panic recovery behave the same everywhere.
//
// # Architecture
//
// A cycle consists of three stages:
//
//  1. Project: prune the document through the visibility set and rewrite edges
//  2. Layout: hand the projection to the oracle (the only blocking call)
//  3. Compose: flatten the oracle's relative tree into absolute coordinates
//
// An optional fourth stage renders the model to SVG, PDF, PNG or JSON.
//
// # Usage
//
//	runner := pipeline.NewRunner(oracle, layered.Engine, cache, nil, logger)
//	result, err := runner.Execute(ctx, doc, visibility.New("etl"), pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg, err := runner.Render(ctx, result.Model, pipeline.RenderOptions{Formats: []string{"svg"}})
//
// Run individual stages:
//
//	p, err := runner.Project(ctx, doc, vis)
//	root, err := runner.Layout(ctx, oracle.NewRequest(p, opts.Layout))
//	model, events, err := runner.Compose(ctx, root, nil)
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/project"
	"github.com/matzehuels/nestview/pkg/render/svg"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, server and view
// =============================================================================

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 30 * time.Second

// Engine names.
const (
	EngineLayered  = "layered"
	EngineGraphviz = "graphviz"
)

// DefaultEngine is the layout engine used when none is configured.
const DefaultEngine = EngineLayered

// Engines lists the supported layout engines.
var Engines = []string{EngineLayered, EngineGraphviz}

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// DefaultPNGScale is the PNG scale factor used when none is given.
const DefaultPNGScale = 2.0

// =============================================================================
// Options
// =============================================================================

// Options configures one project → layout → compose cycle.
type Options struct {
	// Layout carries direction, spacing and padding hints. A zero Direction
	// is taken from the document's arrange value.
	Layout oracle.Options `json:"layout"`

	// Activate is attached to the resulting model.
	Activate compose.ActivateFunc `json:"-"`
}

// RenderOptions configures the optional render stage.
type RenderOptions struct {
	Formats  []string `json:"formats"`
	Theme    string   `json:"theme,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`
	NoHints  bool     `json:"no_hints,omitempty"`
}

// ValidateAndSetDefaults validates render options and fills defaults.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Theme == "" {
		o.Theme = svg.DefaultTheme
	}
	if _, err := svg.LookupTheme(o.Theme); err != nil {
		return err
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of a full cycle.
type Result struct {
	Projection  *project.Projection `json:"projection"`
	Layout      *oracle.Node        `json:"layout"`
	Model       *compose.Model      `json:"model"`
	Diagnostics diag.Events         `json:"diagnostics,omitempty"`
	Stats       Stats               `json:"stats"`
}

// Stats records stage timings and sizes.
type Stats struct {
	ProjectTime  time.Duration `json:"project_time"`
	LayoutTime   time.Duration `json:"layout_time"`
	ComposeTime  time.Duration `json:"compose_time"`
	NodeCount    int           `json:"node_count"`
	EdgeCount    int           `json:"edge_count"`
	DroppedEdges int           `json:"dropped_edges"`
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks a single output format.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be svg, png, pdf, or json)", format)
	}
	return nil
}

// ValidateFormats checks every format in the list.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks a layout engine name.
func ValidateEngine(engine string) error {
	if err := errors.ValidateOneOf("engine", engine, Engines...); err != nil {
		return fmt.Errorf("invalid engine: %w", err)
	}
	return nil
}
