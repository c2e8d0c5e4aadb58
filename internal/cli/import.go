package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	kasync "github.com/nhle/kaneo-automation/internal/sync"
	"github.com/nhle/kaneo-automation/internal/workflow"
)

func (a *app) newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import open issues from every integration with importing enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			creds, err := a.openCredentials()
			if err != nil {
				return err
			}

			engine := workflow.NewEngine(s, s, nil, a.logger)
			importer := kasync.New(s, engine, kasync.NewSourceFactory(creds.Lookup), a.logger)
			summary, runErr := importer.RunOnce(cmd.Context())

			if a.jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d integrations, %d open issues, %d imported, %d moved\n",
					summary.Integrations, summary.Issues, summary.Imported, summary.Moved)
			}
			return runErr
		},
	}
}
