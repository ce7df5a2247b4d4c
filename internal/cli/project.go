package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/project"
)

// projectOutput is the JSON printed by the project command.
type projectOutput struct {
	Projection  *project.Projection `json:"projection"`
	Diagnostics diag.Events         `json:"diagnostics"`
}

// projectCommand prints the layout request for a visibility set without
// running the layout oracle.
func (c *CLI) projectCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "project [graph.json|graph.yaml]",
		Short: "Print the visible node tree and rewritten edges",
		Long: `Print the layout request for a visibility set: the visible node tree with
sizes and the edges rewritten to visible endpoints, grouped by the open group
that contains them. Nothing is laid out.

Diagnostics (dropped, merged or renamed edges) are printed to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProject(cmd.Context(), cmd, args[0], &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runProject(ctx context.Context, cmd *cobra.Command, input string, flags *layoutFlags) error {
	doc, vis, err := c.loadDocument(input, flags.expand)
	if err != nil {
		return err
	}
	flags.noCache = true
	runner, _, err := c.newRunner(ctx, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	p, err := runner.Project(ctx, doc, vis)
	if err != nil {
		return err
	}
	p.Diagnostics.Log(c.Logger)

	out := projectOutput{Projection: p, Diagnostics: p.Diagnostics}
	if out.Diagnostics == nil {
		out.Diagnostics = diag.Events{}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode projection: %w", err)
	}
	return nil
}
