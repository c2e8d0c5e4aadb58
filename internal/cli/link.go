package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/tasklink"
	"github.com/nhle/kaneo-automation/internal/theme"
)

func (a *app) newLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage links between tasks",
	}

	list := &cobra.Command{
		Use:   "list TASK",
		Short: "List the links of a task as seen from that task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := a.linkService()
			if err != nil {
				return err
			}
			views, err := links.ListLinks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), views)
			}

			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.ID, string(v.DisplayType), string(v.Direction), v.TaskTitle, v.TaskID})
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.Table([]string{"ID", "Type", "Direction", "Task", "Task ID"}, rows))
			return nil
		},
	}

	var (
		linkType  string
		createdBy string
	)
	add := &cobra.Command{
		Use:   "add FROM TO",
		Short: "Link two tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := a.linkService()
			if err != nil {
				return err
			}
			link, err := links.CreateLink(cmd.Context(), args[0], args[1], model.LinkType(linkType), createdBy)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), link)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s %s %s %s\n",
				args[0], link.Type, args[1], theme.HelpStyle.Render(link.ID))
			return nil
		},
	}
	add.Flags().StringVar(&linkType, "type", string(model.LinkRelatesTo),
		"blocks, blocked_by, relates_to, duplicates, parent or child")
	add.Flags().StringVar(&createdBy, "by", "", "user recorded as the link's creator")

	remove := &cobra.Command{
		Use:   "delete TASK LINK",
		Short: "Delete a link from a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := a.linkService()
			if err != nil {
				return err
			}
			if err := links.DeleteLink(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted link %s\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func (a *app) linkService() (*tasklink.Service, error) {
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return tasklink.NewService(s, a.logger), nil
}
