package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/pipeline"
)

// watchCommand re-renders a document every time the file changes.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		theme  string
	)

	cmd := &cobra.Command{
		Use:   "watch [graph.json|graph.yaml]",
		Short: "Re-render an SVG whenever the document changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], &flags, output, theme)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output SVG (default: <input>.svg)")
	cmd.Flags().StringVar(&theme, "theme", "", "colour theme")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, flags *layoutFlags, output, theme string) error {
	s, err := c.openSession(ctx, input, flags, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if output == "" {
		output = basePath("", input) + "." + pipeline.FormatSVG
	}
	opts := s.cfg.RenderOptions([]string{pipeline.FormatSVG})
	if theme != "" {
		opts.Theme = theme
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	write := func(m *compose.Model) error {
		artifacts, err := s.runner.Render(ctx, m, opts)
		if err != nil {
			return err
		}
		return os.WriteFile(output, artifacts[pipeline.FormatSVG], 0o644)
	}

	if err := write(s.view.Model()); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Rendered %s", input)
	printFile(output)

	s.view.OnModel(func(m *compose.Model) {
		if err := write(m); err != nil {
			c.Logger.Error("render failed", "output", output, "error", err)
			return
		}
		c.Logger.Info("updated", "output", output, "nodes", len(m.Nodes), "edges", len(m.Edges))
	})

	printDetail("Watching %s, press Ctrl+C to stop", input)
	<-ctx.Done()
	return nil
}
