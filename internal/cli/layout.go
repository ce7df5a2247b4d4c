package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestview/pkg/config"
	"github.com/matzehuels/nestview/pkg/pipeline"
)

// layoutCommand creates the layout command, which writes the flat render model.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json|graph.yaml]",
		Short: "Compute the render model for a visibility set",
		Long: `Compute the render model for a visibility set.

The document is projected, laid out by the configured engine and flattened
into absolute coordinates. The output is the render model JSON (nodes and
edges) that 'render' and the HTTP server produce. With --raw the nested
oracle result (positions relative to the parent) is written instead.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], &flags, output, raw)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&raw, "raw", false, "write the nested oracle result instead of the flat model")

	return cmd
}

// runLayout runs one cycle and writes the model.
func (c *CLI) runLayout(ctx context.Context, input string, flags *layoutFlags, output string, raw bool) error {
	res, runner, _, err := c.runCycle(ctx, input, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	var v any = res.Model
	if raw {
		v = res.Layout
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}

// runCycle loads input and runs project → layout → compose once, showing a
// spinner while the oracle works. The caller closes the returned runner.
func (c *CLI) runCycle(ctx context.Context, input string, flags *layoutFlags) (*pipeline.Result, *pipeline.Runner, *config.Config, error) {
	doc, vis, err := c.loadDocument(input, flags.expand)
	if err != nil {
		return nil, nil, nil, err
	}
	runner, cfg, err := c.newRunner(ctx, flags)
	if err != nil {
		return nil, nil, nil, err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", runner.Engine))
	spinner.Start()
	res, err := runner.Execute(ctx, doc, vis, pipeline.Options{Layout: layoutOptions(cfg)})
	if err != nil {
		spinner.StopWithError("Layout failed")
		runner.Close()
		return nil, nil, nil, fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		runner.Close()
		return nil, nil, nil, ctx.Err()
	}
	printDiagnostics(res.Diagnostics, c.Logger.GetLevel() <= LogDebug)
	return res, runner, cfg, nil
}
