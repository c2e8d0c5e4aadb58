package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/kaneo-automation/internal/theme"
)

func (a *app) newNotificationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notification"},
		Short:   "Review automated task moves",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			notifications, err := s.GetUnreadNotifications(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), notifications)
			}

			rows := make([][]string, 0, len(notifications))
			for _, n := range notifications {
				rows = append(rows, []string{n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message})
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.Table([]string{"ID", "When", "Message"}, rows))
			return nil
		},
	}

	read := &cobra.Command{
		Use:   "read ID",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			return s.MarkNotificationRead(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(list, read)
	return cmd
}
