package cli

import (
	"context"
	"fmt"

	"github.com/matzehuels/nestview/pkg/config"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/view"
)

// session bundles what the interactive commands share: a view over one
// document, the runner behind it and an optional file watcher.
type session struct {
	view    *view.View
	runner  *pipeline.Runner
	cfg     *config.Config
	watcher *graph.Watcher
	stop    func()
}

// openSession loads input, computes the first model and, with watch, starts
// reloading the document on change. A reload keeps the visibility set;
// groups that no longer exist simply stop matching.
func (c *CLI) openSession(ctx context.Context, input string, flags *layoutFlags, watch bool) (*session, error) {
	if err := errors.ValidateDocumentFilename(input); err != nil {
		return nil, err
	}
	w, err := graph.NewWatcher(input, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", input, err)
	}
	doc := w.Document()
	vis, err := pipeline.ExpandSet(doc, flags.expand)
	if err != nil {
		return nil, err
	}

	runner, cfg, err := c.newRunner(ctx, flags)
	if err != nil {
		return nil, err
	}

	v := view.New(runner, doc, view.Options{
		Layout:   layoutOptions(cfg),
		Expanded: vis,
		Logger:   c.Logger,
	})
	if _, err := v.Refresh(ctx); err != nil {
		runner.Close()
		return nil, fmt.Errorf("compute layout: %w", err)
	}

	s := &session{view: v, runner: runner, cfg: cfg, watcher: w, stop: func() {}}
	if watch {
		w.OnChange(func(doc *graph.Document) {
			prog := newProgress(c.Logger)
			if _, err := v.SetDocument(ctx, doc); err != nil {
				if !errors.Is(err, errors.ErrCodeSuperseded) {
					c.Logger.Error("reload failed", "path", input, "error", err)
				}
				return
			}
			prog.done("reloaded document", "path", input, "nodes", doc.NodeCount())
		})
		stop, err := w.Watch()
		if err != nil {
			runner.Close()
			return nil, err
		}
		s.stop = stop
		c.Logger.Info("watching for changes", "path", input)
	}
	return s, nil
}

// Close stops the watcher and releases the runner's cache.
func (s *session) Close() error {
	s.stop()
	return s.runner.Close()
}
