// Package view holds the interactive state of one diagram.
//
// A [View] owns a document, its visibility set and the last good render
// model. Every visibility change triggers a full project → layout → compose
// cycle through a pipeline.Runner.
//
// The layout call runs outside the view's lock, so toggles may overlap.
// Each cycle is tagged with a sequence number and only the latest issued
// cycle may publish its model; earlier ones are discarded with a
// stale_result diagnostic and an ErrCodeSuperseded error. A failed layout
// keeps the previous model and reports an oracle_failure diagnostic.
package view

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/observability"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/visibility"
)

// Options configures a View.
type Options struct {
	// Layout hints passed to every cycle. A zero Direction follows the
	// document.
	Layout oracle.Options

	// Expanded is the initial visibility set. It is copied.
	Expanded *visibility.Set

	Logger *log.Logger
}

// View is the stateful host of a diagram. It is safe for concurrent use.
type View struct {
	id     string
	runner *pipeline.Runner
	layout oracle.Options
	logger *log.Logger

	mu        sync.Mutex
	doc       *graph.Document
	vis       *visibility.Set
	seq       uint64
	model     *compose.Model
	result    *pipeline.Result
	events    diag.Events
	listeners []func(*compose.Model)
}

// New creates a view over doc. No layout is computed until Refresh or
// Toggle is called.
func New(runner *pipeline.Runner, doc *graph.Document, opts Options) *View {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	vis := opts.Expanded.Clone()
	id := uuid.New().String()
	return &View{
		id:     id,
		runner: runner,
		layout: opts.Layout,
		logger: logger.With("view", id[:8]),
		doc:    doc,
		vis:    vis,
	}
}

// ID returns the view's unique id.
func (v *View) ID() string { return v.id }

// Model returns the last good model, or nil before the first successful
// cycle.
func (v *View) Model() *compose.Model {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.model
}

// Result returns the last successful pipeline result, or nil.
func (v *View) Result() *pipeline.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

// Visibility returns a copy of the current visibility set.
func (v *View) Visibility() *visibility.Set {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vis.Clone()
}

// Document returns the current document.
func (v *View) Document() *graph.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc
}

// Diagnostics returns the diagnostics of the last cycle followed by any
// stale_result and oracle_failure events reported since.
func (v *View) Diagnostics() diag.Events {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append(diag.Events(nil), v.events...)
}

// OnModel registers fn to be called with every newly published model.
func (v *View) OnModel(fn func(*compose.Model)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Activate toggles id in the background context. It is the activation side
// channel handed to the render model; errors are logged.
func (v *View) Activate(id string) {
	if _, err := v.Toggle(context.Background(), id); err != nil && !errors.Is(err, errors.ErrCodeSuperseded) {
		v.logger.Warn("activation failed", "node", id, "error", errors.UserMessage(err))
	}
}

// Toggle flips the membership of id in the visibility set and recomputes
// the model. Toggling a leaf is allowed and has no visible effect. Any id
// present in the document is accepted; an unknown id is checked with
// errors.ValidateNodeID so malformed input reports INVALID_INPUT rather than
// NODE_NOT_FOUND.
func (v *View) Toggle(ctx context.Context, id string) (*compose.Model, error) {
	v.mu.Lock()
	if v.doc == nil || v.doc.Find(id) == nil {
		v.mu.Unlock()
		if err := errors.ValidateNodeID(id); err != nil {
			return nil, err
		}
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	open := v.vis.Toggle(id)
	v.mu.Unlock()

	observability.View().OnToggle(ctx, id, open)
	v.logger.Debug("toggled node", "node", id, "open", open)
	return v.Refresh(ctx)
}

// SetVisibility replaces the whole visibility set and recomputes the model.
// Ids that do not name a node are kept; they have no effect until a document
// containing them is loaded.
func (v *View) SetVisibility(ctx context.Context, vis *visibility.Set) (*compose.Model, error) {
	next := vis.Clone()
	v.mu.Lock()
	v.vis = next
	v.mu.Unlock()
	v.logger.Debug("replaced visibility set", "expanded", next.Len())
	return v.Refresh(ctx)
}

// SetDocument replaces the document, keeping the visibility set, and
// recomputes the model.
func (v *View) SetDocument(ctx context.Context, doc *graph.Document) (*compose.Model, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	v.mu.Lock()
	v.doc = doc
	v.mu.Unlock()
	return v.Refresh(ctx)
}

// Refresh runs a full cycle on the current state and publishes the result if
// no newer cycle was issued meanwhile.
func (v *View) Refresh(ctx context.Context) (*compose.Model, error) {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	doc := v.doc
	vis := v.vis.Clone()
	v.mu.Unlock()

	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "view has no document")
	}

	res, err := v.runner.Execute(ctx, doc, vis, pipeline.Options{
		Layout:   v.layout,
		Activate: v.Activate,
	})

	v.mu.Lock()
	if seq != v.seq {
		latest := v.seq
		v.events = append(v.events, diag.Event{
			Kind:    diag.StaleResult,
			Subject: fmt.Sprintf("%d", seq),
			Message: fmt.Sprintf("layout %d discarded, %d is the latest request", seq, latest),
		})
		v.mu.Unlock()
		observability.View().OnStaleResult(ctx, seq, latest)
		v.logger.Debug("discarded stale layout", "seq", seq, "latest", latest)
		return nil, errors.New(errors.ErrCodeSuperseded, "layout request %d superseded by %d", seq, latest)
	}

	if err != nil {
		if errors.Is(err, errors.ErrCodeOracleFailure) || errors.Is(err, errors.ErrCodeTimeout) {
			v.events = append(v.events, diag.Event{
				Kind:    diag.OracleFailure,
				Subject: fmt.Sprintf("%d", seq),
				Message: errors.UserMessage(err),
			})
			observability.Pipeline().OnDiagnostic(ctx, string(diag.OracleFailure))
		}
		last := v.model
		v.mu.Unlock()
		v.logger.Error("layout failed, keeping previous model", "seq", seq, "error", err)
		return last, err
	}

	v.model = res.Model
	v.result = res
	v.events = res.Diagnostics
	listeners := slices.Clone(v.listeners)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(res.Model)
	}
	return res.Model, nil
}
