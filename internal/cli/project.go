package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
	"github.com/nhle/kaneo-automation/internal/theme"
)

func (a *app) newProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage project boards",
	}

	var slug string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project with the default status columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if slug == "" {
				slug = defaultSlug(args[0])
			}
			project, err := s.CreateProject(cmd.Context(), args[0], slug)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), project)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s) %s\n",
				project.Name, project.Slug, theme.HelpStyle.Render(project.ID))
			return nil
		},
	}
	create.Flags().StringVar(&slug, "slug", "", "task reference prefix (default: derived from the name)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			projects, err := s.GetProjects(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), projects)
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Slug, p.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.Table([]string{"ID", "Slug", "Name"}, rows))
			return nil
		},
	}

	columns := &cobra.Command{
		Use:   "columns PROJECT",
		Short: "List a project's columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			project, err := resolveProject(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			cols, err := s.GetColumns(cmd.Context(), project.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), cols)
			}

			rows := make([][]string, 0, len(cols))
			for _, c := range cols {
				rows = append(rows, []string{c.ID, theme.StatusStyle(model.Status(c.Slug)).Render(c.Slug), c.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.Table([]string{"ID", "Slug", "Name"}, rows))
			return nil
		},
	}

	cmd.AddCommand(create, list, columns)
	return cmd
}

// defaultSlug keeps the letters and digits of name, lowercased, up to
// three characters.
func defaultSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 3 {
			break
		}
	}
	return b.String()
}

// resolveProject accepts a project ID or slug.
func resolveProject(ctx context.Context, s store.Store, ref string) (*model.Project, error) {
	project, err := s.GetProjectByID(ctx, ref)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	projects, err := s.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if strings.EqualFold(projects[i].Slug, ref) {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", ref, store.ErrNotFound)
}
