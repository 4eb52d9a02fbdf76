package cli

import (
	"github.com/spf13/cobra"
)

func newCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Comment commands",
	}
	cmd.AddCommand(newCommentsAddCmd(app))
	cmd.AddCommand(newCommentsListCmd(app))
	return cmd
}

func newCommentsAddCmd(app *App) *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add a comment to a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := ctrl.AddComment(cmd.Context(), taskID, body)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": c})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "Comment body (markdown)")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func newCommentsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List comments for a task, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, ok := ctrl.Task(taskID); !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			cs, err := ctrl.Comments(cmd.Context(), taskID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": cs,
				"meta": map[string]any{"count": len(cs)},
			})
		},
	}
}
