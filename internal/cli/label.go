package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/kaneo-automation/internal/labels"
	"github.com/nhle/kaneo-automation/internal/theme"
)

func (a *app) newLabelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Inspect how issue labels map onto tasks",
	}

	classify := &cobra.Command{
		Use:   "classify LABEL...",
		Short: "Show the priority and status a label set implies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := labels.Classify(args)
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "priority: %s\nstatus:   %s\n",
				theme.PriorityStyle(c.Priority).Render(string(c.Priority)),
				theme.StatusStyle(c.Status).Render(string(c.Status)))
			return nil
		},
	}

	palette := &cobra.Command{
		Use:   "palette",
		Short: "Show the label colors applied to imported tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := labels.Palette()
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.HeaderStyle.Render("Label palette"))
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s #%s\n", theme.LabelSwatch(e.Label, e.Color), e.Color)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%s\n",
				theme.LabelSwatch("(other)", labels.FallbackColor), labels.FallbackColor)
			return nil
		},
	}

	cmd.AddCommand(classify, palette)
	return cmd
}
