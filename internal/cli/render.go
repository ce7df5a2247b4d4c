package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/render/svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file (single format) or base path (multiple)
	formats []string // svg, json, pdf, png
	theme   string   // light or dark; empty uses the config
	scale   float64  // PNG scale factor; zero uses the config
	noHints bool     // hide the expand/collapse hint
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		opts       renderOpts
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json|graph.yaml]",
		Short: "Render a nested graph to SVG, PNG, PDF or JSON",
		Long: `Render a nested graph for a visibility set.

Groups are collapsed unless listed with --expand (use --expand '*' to open
everything). PDF and PNG output require rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if opts.theme != "" {
				if _, err := svg.LookupTheme(opts.theme); err != nil {
					return err
				}
			}
			return c.runRender(cmd.Context(), args[0], &flags, &opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "colour theme: "+strings.Join(svg.ThemeNames(), ", "))
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noHints, "no-hints", false, "hide the expand/collapse hint on groups")

	return cmd
}

// runRender runs one cycle and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, flags *layoutFlags, opts *renderOpts) error {
	res, runner, cfg, err := c.runCycle(ctx, input, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	ro := cfg.RenderOptions(opts.formats)
	if opts.theme != "" {
		ro.Theme = opts.theme
	}
	if opts.scale > 0 {
		ro.PNGScale = opts.scale
	}
	ro.NoHints = ro.NoHints || opts.noHints

	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, res.Model, ro)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	paths := outputPaths(opts.output, input, opts.formats)
	for _, format := range opts.formats {
		path := paths[format]
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		c.Logger.Debug("wrote artifact", "format", format, "path", path, "bytes", len(artifacts[format]))
	}

	printSuccess("Rendered %s", input)
	for _, format := range opts.formats {
		printFile(paths[format])
	}
	printStats(res.Stats)
	printArtifactStatus(cached)
	return nil
}

// outputPaths maps each format to a file path. A single format with an
// explicit output uses it as is; otherwise files are named base.format.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
