package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/view"
)

// Timeouts applied to the underlying http.Server.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// HeaderViewID carries the id of the served view.
const HeaderViewID = "X-View-ID"

// Options configures a Server.
type Options struct {
	Addr   string
	Logger *log.Logger

	// Render are the defaults for /v1/render.svg.
	Render pipeline.RenderOptions

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server is the HTTP host for one view.
type Server struct {
	view   *view.View
	runner *pipeline.Runner
	logger *log.Logger
	render pipeline.RenderOptions
	router chi.Router
	http   *http.Server
}

// New creates a server for v. The runner renders SVG artifacts and is
// usually the one the view was built with.
func New(v *view.View, runner *pipeline.Runner, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		view:   v,
		runner: runner,
		logger: logger,
		render: opts.Render,
	}
	s.router = s.routes(opts.Metrics)
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: DefaultReadTimeout,
	}
	return s
}

func (s *Server) routes(metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.viewHeader)

	r.Get("/healthz", s.healthz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/model", s.getModel)
		r.Post("/nodes/{id}/toggle", s.toggle)
		r.Get("/visibility", s.getVisibility)
		r.Put("/visibility", s.putVisibility)
		r.Get("/diagnostics", s.getDiagnostics)
		r.Post("/refresh", s.refresh)
		r.Get("/render.svg", s.renderSVG)
	})
	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr, "view", s.view.ID())
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
