package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
	kasync "github.com/nhle/kaneo-automation/internal/sync"
	"github.com/nhle/kaneo-automation/internal/theme"
)

type integrationInput struct {
	project      string
	kind         string
	repository   string
	baseURL      string
	importIssues bool
	secret       string
	token        string
}

func (a *app) newIntegrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration",
		Short: "Connect repositories to projects",
	}

	var in integrationInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Connect a GitHub or Gitea repository to a project",
		Long: `Connect a repository to a project. The webhook secret and API token are
kept in the system keyring. Missing required values are asked for
interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.project == "" || in.kind == "" || in.repository == "" {
				if err := integrationForm(&in).Run(); err != nil {
					return err
				}
			}
			return a.addIntegration(cmd, in)
		},
	}
	add.Flags().StringVar(&in.project, "project", "", "project ID or slug")
	add.Flags().StringVar(&in.kind, "type", "", "provider: github or gitea")
	add.Flags().StringVar(&in.repository, "repo", "", "repository full name, e.g. owner/name")
	add.Flags().StringVar(&in.baseURL, "base-url", "", "API base URL (required for gitea)")
	add.Flags().BoolVar(&in.importIssues, "import", false, "import open issues on schedule")
	add.Flags().StringVar(&in.secret, "secret", "", "webhook signing secret")
	add.Flags().StringVar(&in.token, "token", "", "API token used by the importer")

	list := &cobra.Command{
		Use:   "list",
		Short: "List integrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listIntegrations(cmd)
		},
	}

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Disconnect a repository and forget its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			creds, err := a.openCredentials()
			if err != nil {
				return err
			}
			if err := s.DeleteIntegration(cmd.Context(), args[0]); err != nil {
				return err
			}
			in := model.Integration{ID: args[0]}
			if err := errors.Join(creds.Delete(in.WebhookSecretKey()), creds.Delete(in.TokenKey())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed integration %s\n", args[0])
			return nil
		},
	}

	check := &cobra.Command{
		Use:   "check ID",
		Short: "Verify the stored API token against the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			creds, err := a.openCredentials()
			if err != nil {
				return err
			}
			in, err := findIntegration(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			src, err := kasync.NewSourceFactory(creds.Lookup)(*in)
			if err != nil {
				return err
			}
			user, err := src.ValidateConnection(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s as %s\n", in.Type, user)
			return nil
		},
	}

	cmd.AddCommand(add, list, remove, check)
	return cmd
}

func integrationForm(in *integrationInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project").
				Description("Project ID or slug").
				Value(&in.project).
				Validate(validateRequired("Project")),
			huh.NewSelect[string]().
				Title("Provider").
				Options(
					huh.NewOption("GitHub", string(model.IntegrationGitHub)),
					huh.NewOption("Gitea", string(model.IntegrationGitea)),
				).
				Value(&in.kind),
			huh.NewInput().
				Title("Repository").
				Placeholder("owner/name").
				Value(&in.repository).
				Validate(validateRepository),
			huh.NewInput().
				Title("Base URL").
				Description("Required for Gitea, optional for GitHub Enterprise").
				Value(&in.baseURL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Webhook secret").
				EchoMode(huh.EchoModePassword).
				Value(&in.secret),
			huh.NewInput().
				Title("API token").
				Description("Needed only for issue import").
				EchoMode(huh.EchoModePassword).
				Value(&in.token),
			huh.NewConfirm().
				Title("Import open issues on schedule?").
				Value(&in.importIssues),
		),
	)
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateRepository(s string) error {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("repository must look like owner/name")
	}
	return nil
}

func (a *app) addIntegration(cmd *cobra.Command, in integrationInput) error {
	if err := validateRepository(in.repository); err != nil {
		return err
	}
	kind := model.IntegrationType(strings.ToLower(in.kind))
	if !kind.Valid() {
		return fmt.Errorf("unknown integration type %q", in.kind)
	}
	if kind == model.IntegrationGitea && strings.TrimSpace(in.baseURL) == "" {
		return fmt.Errorf("gitea integrations need --base-url")
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	creds, err := a.openCredentials()
	if err != nil {
		return err
	}
	project, err := resolveProject(cmd.Context(), s, in.project)
	if err != nil {
		return err
	}

	created, err := s.CreateIntegration(cmd.Context(), model.Integration{
		ProjectID:    project.ID,
		Type:         kind,
		Repository:   in.repository,
		BaseURL:      in.baseURL,
		ImportIssues: in.importIssues,
	})
	if err != nil {
		return err
	}
	if in.secret != "" {
		if err := creds.Set(created.WebhookSecretKey(), in.secret); err != nil {
			return err
		}
	}
	if in.token != "" {
		if err := creds.Set(created.TokenKey(), in.token); err != nil {
			return err
		}
	}

	if a.jsonOutput {
		return printJSON(cmd.OutOrStdout(), created)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected %s %s to %s %s\n",
		theme.IntegrationStyle(kind).Render(string(kind)), created.Repository, project.Name,
		theme.HelpStyle.Render(created.ID))
	fmt.Fprintf(cmd.OutOrStdout(), "Point the repository webhook at /webhook/%s\n", kind)
	if in.secret == "" {
		fmt.Fprintln(cmd.OutOrStdout(), theme.ErrorStyle.Render("No webhook secret set: deliveries will not be verified"))
	}
	return nil
}

func (a *app) listIntegrations(cmd *cobra.Command) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	integrations, err := s.GetIntegrations(cmd.Context())
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return printJSON(cmd.OutOrStdout(), integrations)
	}

	creds, err := a.openCredentials()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(integrations))
	for _, in := range integrations {
		secret, err := creds.Lookup(in.WebhookSecretKey())
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			in.ID,
			theme.IntegrationStyle(in.Type).Render(string(in.Type)),
			in.Repository,
			in.ProjectID,
			yesNo(in.ImportIssues),
			yesNo(secret != ""),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), theme.Table(
		[]string{"ID", "Type", "Repository", "Project", "Import", "Secret"}, rows))
	return nil
}

func findIntegration(ctx context.Context, s store.Store, id string) (*model.Integration, error) {
	integrations, err := s.GetIntegrations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range integrations {
		if integrations[i].ID == id {
			return &integrations[i], nil
		}
	}
	return nil, fmt.Errorf("integration %s: %w", id, store.ErrNotFound)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
