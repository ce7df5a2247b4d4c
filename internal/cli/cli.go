// Package cli implements the nestview command-line interface.
//
// The one-shot commands (project, layout, render) run a single
// project → layout → compose cycle for a fixed visibility set given with
// --expand. The interactive commands (serve, browse, watch) hold a
// [view.View] and recompute the model on every toggle or document change.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestview/pkg/buildinfo"
	"github.com/matzehuels/nestview/pkg/config"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/project"
	"github.com/matzehuels/nestview/pkg/visibility"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogFatal = log.FatalLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "Nestview lays out nested graphs with collapsible groups",
		Long: `Nestview renders hierarchical directed graphs (groups of nodes connected by
edges) and lets any group be expanded or collapsed. Edges that touch a
collapsed group's descendants are rerouted to the group itself.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $"+config.EnvConfig+" or ~/.config/nestview/config.toml)")

	root.AddCommand(c.projectCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Layout Flags
// =============================================================================

// layoutFlags are shared by every command that runs a cycle. Zero values
// defer to the config file.
type layoutFlags struct {
	engine  string
	arrange string
	expand  []string
	timeout time.Duration
	noCache bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.engine, "engine", "e", "", "layout engine: "+strings.Join(pipeline.Engines, ", "))
	cmd.Flags().StringVar(&f.arrange, "arrange", "", "override the document direction: LR, RL, TB, BT")
	cmd.Flags().StringSliceVarP(&f.expand, "expand", "x", nil, "group ids to expand (comma-separated, * for all)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "layout timeout (default from config, 30s)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable layout caching")
}

// apply overlays the flags onto cfg.
func (f *layoutFlags) apply(cfg *config.Config) error {
	if f.engine != "" {
		if err := pipeline.ValidateEngine(f.engine); err != nil {
			return err
		}
		cfg.Layout.Engine = f.engine
	}
	if f.arrange != "" {
		cfg.Layout.Arrange = f.arrange
	}
	if f.timeout > 0 {
		cfg.Layout.Timeout.Duration = f.timeout
	}
	return cfg.Validate()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the config and flags.
func (c *CLI) newRunner(ctx context.Context, f *layoutFlags) (*pipeline.Runner, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := f.apply(cfg); err != nil {
		return nil, nil, err
	}

	store, err := cfg.OpenCache(ctx, f.noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		store, _ = cfg.OpenCache(ctx, true)
	}
	keyer := cfg.Keyer()

	o, err := pipeline.NewCachedOracle(cfg.Layout.Engine, store, keyer, cfg.Cache.TTL.Duration)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	projOpts, err := cfg.ProjectOptions()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	r := pipeline.NewRunner(o, cfg.Layout.Engine, store, keyer, c.Logger)
	r.Projector = project.New(projOpts)
	r.Timeout = cfg.Layout.Timeout.Duration
	c.Logger.Debug("runner ready", "engine", r.Engine, "cache", cfg.Cache.Backend, "timeout", r.Timeout)
	return r, cfg, nil
}

// layoutOptions resolves the oracle hints. Direction stays empty unless
// [layout] arrange or --arrange is set, so every cycle follows the arrange
// of the document it lays out, including documents reloaded by a watcher.
func layoutOptions(cfg *config.Config) oracle.Options {
	return cfg.LayoutOptions("")
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. A known format
// extension on output is stripped as well.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// loadDocument reads input and builds the initial visibility set.
func (c *CLI) loadDocument(input string, expand []string) (*graph.Document, *visibility.Set, error) {
	doc, err := pipeline.LoadDocument(input)
	if err != nil {
		return nil, nil, fmt.Errorf("load document %s: %w", input, err)
	}
	vis, err := pipeline.ExpandSet(doc, expand)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("loaded document", "path", input, "nodes", doc.NodeCount(), "edges", len(doc.Edges), "expanded", vis.Len())
	return doc, vis, nil
}
