package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestview/pkg/compose"
)

// browseCommand opens the terminal browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags layoutFlags
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "browse [graph.json|graph.yaml]",
		Short: "Expand and collapse groups interactively in the terminal",
		Long: `Browse the visible node tree in the terminal. Every expand or collapse
recomputes the layout, so edge rerouting and diagnostics can be inspected as
groups open and close.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], &flags, watch)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the document when the file changes")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, flags *layoutFlags, watch bool) error {
	s, err := c.openSession(ctx, input, flags, watch)
	if err != nil {
		return err
	}
	defer s.Close()

	// The browser owns the terminal; keep log lines from tearing the screen.
	level := c.Logger.GetLevel()
	c.SetLogLevel(LogFatal)
	defer c.SetLogLevel(level)

	p := tea.NewProgram(NewBrowseModel(ctx, s.view, input), tea.WithAltScreen(), tea.WithContext(ctx))
	s.view.OnModel(func(*compose.Model) { p.Send(modelChangedMsg{}) })

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
