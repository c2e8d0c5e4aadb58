package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
	"github.com/nhle/kaneo-automation/internal/theme"
)

func (a *app) newRuleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage workflow rules",
	}

	var listProject string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a project's workflow rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listRules(cmd, listProject)
		},
	}
	list.Flags().StringVar(&listProject, "project", "", "project ID or slug")
	_ = list.MarkFlagRequired("project")

	var (
		project     string
		integration string
		event       string
		column      string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or retarget the rule for an integration and event",
		Long: `Route an event to a column. A project has at most one rule per
integration and event; setting it again moves the target column.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			p, err := resolveProject(cmd.Context(), s, project)
			if err != nil {
				return err
			}

			if event == "" || column == "" {
				cols, err := s.GetColumns(cmd.Context(), p.ID)
				if err != nil {
					return err
				}
				if err := ruleForm(&integration, &event, &column, cols).Run(); err != nil {
					return err
				}
			}

			col, err := resolveColumn(cmd.Context(), s, p.ID, column)
			if err != nil {
				return err
			}
			rule, err := s.UpsertWorkflowRule(cmd.Context(), p.ID,
				model.IntegrationType(integration), model.EventType(event), col.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), rule)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s now moves tasks to %s %s\n",
				integration, event, col.Name, theme.HelpStyle.Render(rule.ID))
			return nil
		},
	}
	set.Flags().StringVar(&project, "project", "", "project ID or slug")
	set.Flags().StringVar(&integration, "integration", string(model.IntegrationGitHub), "github or gitea")
	set.Flags().StringVar(&event, "event", "", "branch_push, pr_opened, pr_merged, issue_opened or issue_closed")
	set.Flags().StringVar(&column, "column", "", "target column slug or ID")
	_ = set.MarkFlagRequired("project")

	remove := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if err := s.DeleteWorkflowRule(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, set, remove)
	return cmd
}

func ruleForm(integration, event, column *string, cols []model.Column) *huh.Form {
	events := make([]huh.Option[string], 0, len(model.EventTypes))
	for _, e := range model.EventTypes {
		events = append(events, huh.NewOption(string(e), string(e)))
	}
	columns := make([]huh.Option[string], 0, len(cols))
	for _, c := range cols {
		columns = append(columns, huh.NewOption(c.Name, c.Slug))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Integration").
				Options(
					huh.NewOption("GitHub", string(model.IntegrationGitHub)),
					huh.NewOption("Gitea", string(model.IntegrationGitea)),
				).
				Value(integration),
			huh.NewSelect[string]().
				Title("Event").
				Options(events...).
				Value(event),
			huh.NewSelect[string]().
				Title("Move tasks to").
				Options(columns...).
				Value(column),
		),
	)
}

// resolveColumn accepts a column slug or ID belonging to projectID.
func resolveColumn(ctx context.Context, s store.Store, projectID, ref string) (*model.Column, error) {
	col, err := s.GetColumnBySlug(ctx, projectID, ref)
	if err == nil {
		return col, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	col, err = s.GetColumnByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if col.ProjectID != projectID {
		return nil, fmt.Errorf("column %s belongs to another project", ref)
	}
	return col, nil
}

func (a *app) listRules(cmd *cobra.Command, projectRef string) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	project, err := resolveProject(cmd.Context(), s, projectRef)
	if err != nil {
		return err
	}
	rules, err := s.GetWorkflowRules(cmd.Context(), project.ID)
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return printJSON(cmd.OutOrStdout(), rules)
	}

	cols, err := s.GetColumns(cmd.Context(), project.ID)
	if err != nil {
		return err
	}
	names := make(map[string]model.Column, len(cols))
	for _, c := range cols {
		names[c.ID] = c
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		target := r.ColumnID
		if c, ok := names[r.ColumnID]; ok {
			target = theme.StatusStyle(model.Status(c.Slug)).Render(c.Name)
		}
		rows = append(rows, []string{
			r.ID,
			theme.IntegrationStyle(r.IntegrationType).Render(string(r.IntegrationType)),
			string(r.EventType),
			target,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), theme.HeaderStyle.Render(project.Name+" workflow rules"))
	fmt.Fprintln(cmd.OutOrStdout(), theme.Table([]string{"ID", "Integration", "Event", "Column"}, rows))
	return nil
}
