package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestview/pkg/cache"
	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/observability"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/project"
	"github.com/matzehuels/nestview/pkg/visibility"
)

// Runner executes pipeline cycles.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Projector *project.Projector
	Oracle    oracle.Oracle
	Engine    string
	Timeout   time.Duration
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
}

// NewRunner creates a runner around an oracle.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (artifact caching disabled).
// If logger is nil, the default logger is used.
func NewRunner(o oracle.Oracle, engine string, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if engine == "" {
		engine = DefaultEngine
	}
	return &Runner{
		Projector: project.New(project.Options{}),
		Oracle:    o,
		Engine:    engine,
		Timeout:   DefaultTimeout,
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
	}
}

// Execute runs the complete project → layout → compose cycle.
func (r *Runner) Execute(ctx context.Context, doc *graph.Document, vis *visibility.Set, opts Options) (*Result, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	if opts.Layout.Direction == "" {
		opts.Layout.Direction = doc.Direction()
	}

	result := &Result{}

	// Stage 1: Project
	start := time.Now()
	p, err := r.Project(ctx, doc, vis)
	if err != nil {
		return nil, err
	}
	result.Projection = p
	result.Stats.ProjectTime = time.Since(start)
	result.Stats.NodeCount = p.NodeCount()
	result.Stats.EdgeCount = p.EdgeCount()
	result.Stats.DroppedEdges = len(p.Dropped)

	r.Logger.Debug("projected document",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"dropped", result.Stats.DroppedEdges,
		"duration", result.Stats.ProjectTime)

	// Stage 2: Layout
	start = time.Now()
	root, err := r.Layout(ctx, oracle.NewRequest(p, opts.Layout))
	if err != nil {
		p.Diagnostics.Log(r.Logger)
		return nil, err
	}
	result.Layout = root
	result.Stats.LayoutTime = time.Since(start)

	r.Logger.Info("computed layout",
		"engine", r.Engine,
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Compose
	start = time.Now()
	model, events, err := r.Compose(ctx, root, opts.Activate)
	if err != nil {
		return nil, err
	}
	result.Model = model
	result.Stats.ComposeTime = time.Since(start)

	result.Diagnostics = append(append(diag.Events{}, p.Diagnostics...), events...)
	result.Diagnostics.Log(r.Logger)
	return result, nil
}

// Project runs the Visibility Projector. Panics are converted to errors.
func (r *Runner) Project(ctx context.Context, doc *graph.Document, vis *visibility.Set) (p *project.Projection, err error) {
	defer func() {
		if e := errors.Recovered(recover(), errors.ErrCodeInternal, "projection"); e != nil {
			p, err = nil, e
		}
	}()
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}

	start := time.Now()
	p = r.Projector.ProjectDocument(doc, vis)
	observability.Pipeline().OnProjectComplete(ctx, p.NodeCount(), p.EdgeCount(), time.Since(start))
	reportDiagnostics(ctx, p.Diagnostics)
	return p, nil
}

// Layout calls the oracle, bounded by the runner's timeout. The call runs on
// its own goroutine so an oracle that ignores its context still cannot block
// past the deadline.
func (r *Runner) Layout(ctx context.Context, req *oracle.Request) (*oracle.Node, error) {
	if r.Oracle == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no layout oracle configured")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, r.Engine, len(req.Nodes))
	start := time.Now()

	type outcome struct {
		root *oracle.Node
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() {
			if e := errors.Recovered(recover(), errors.ErrCodeOracleFailure, "layout"); e != nil {
				out = outcome{err: e}
			}
			done <- out
		}()
		out.root, out.err = r.Oracle.Layout(ctx, req)
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	err := r.classify(out.root, out.err, timeout)
	hooks.OnLayoutComplete(ctx, r.Engine, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out.root, nil
}

func (r *Runner) classify(root *oracle.Node, err error, timeout time.Duration) error {
	switch {
	case err == nil && root == nil:
		return errors.New(errors.ErrCodeOracleFailure, "layout engine %s returned no result", r.Engine)
	case err == nil:
		return nil
	case errors.GetCode(err) != "":
		return err
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, "layout engine %s timed out after %s", r.Engine, timeout)
	default:
		return errors.Wrap(errors.ErrCodeOracleFailure, err, "layout engine %s", r.Engine)
	}
}

// Compose runs the Flattening Composer. Panics are converted to errors.
func (r *Runner) Compose(ctx context.Context, root *oracle.Node, activate compose.ActivateFunc) (m *compose.Model, events diag.Events, err error) {
	defer func() {
		if e := errors.Recovered(recover(), errors.ErrCodeInternal, "composition"); e != nil {
			m, events, err = nil, nil, e
		}
	}()

	start := time.Now()
	m, events = compose.Flatten(root, activate)
	observability.Pipeline().OnComposeComplete(ctx, len(m.Nodes), len(m.Edges), time.Since(start))
	reportDiagnostics(ctx, events)
	return m, events, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func reportDiagnostics(ctx context.Context, events diag.Events) {
	hooks := observability.Pipeline()
	for _, e := range events {
		hooks.OnDiagnostic(ctx, string(e.Kind))
	}
}
