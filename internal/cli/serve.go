package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestview/pkg/observability/metrics"
	"github.com/matzehuels/nestview/pkg/server"
)

// serveCommand serves a document over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags   layoutFlags
		addr    string
		watch       bool
		withMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve [graph.json|graph.yaml]",
		Short: "Serve the render model over HTTP",
		Long: `Serve the render model over HTTP.

  GET  /v1/model                 current model
  POST /v1/nodes/{id}/toggle     expand or collapse a group
  GET  /v1/render.svg            current model as SVG

With --watch the document is reloaded whenever the file changes; the set of
expanded groups is kept. With --metrics Prometheus metrics are served at
/metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], &flags, addr, watch, withMetrics)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the document when the file changes")
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "serve Prometheus metrics at /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, flags *layoutFlags, addr string, watch, withMetrics bool) error {
	s, err := c.openSession(ctx, input, flags, watch)
	if err != nil {
		return err
	}
	defer s.Close()

	if addr == "" {
		addr = s.cfg.Server.Addr
	}
	opts := server.Options{
		Addr:   addr,
		Logger: c.Logger,
		Render: s.cfg.RenderOptions(nil),
	}
	if withMetrics || s.cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics.New(reg).Install()
		opts.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	srv := server.New(s.view, s.runner, opts)
	printSuccess("Serving %s", input)
	printDetail("http://%s/v1/model", srv.Addr())
	return srv.ListenAndServe(ctx)
}
