package cli

import (
	"strconv"

	"taskboard-cli/internal/board"

	"github.com/spf13/cobra"
)

func newSubtasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtasks",
		Short: "Subtask (checklist) commands",
	}
	cmd.AddCommand(newSubtasksAddCmd(app))
	cmd.AddCommand(newSubtasksToggleCmd(app))
	cmd.AddCommand(newSubtasksSetCmd(app))
	return cmd
}

func newSubtasksAddCmd(app *App) *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add a subtask to a task",
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
			st, err := ctrl.AddSubtask(cmd.Context(), taskID, content)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": st,
				"meta": progressMeta(ctrl, taskID),
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Subtask text")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newSubtasksToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id> <subtask-id>",
		Short: "Flip a subtask between done and not done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			subID, err := parseID("subtask", args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			complete, err := ctrl.ToggleSubtask(cmd.Context(), taskID, subID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": subID, "task_id": taskID, "is_complete": complete},
				"meta": progressMeta(ctrl, taskID),
			})
		},
	}
}

func newSubtasksSetCmd(app *App) *cobra.Command {
	var complete bool

	cmd := &cobra.Command{
		Use:   "set <task-id> <subtask-id>",
		Short: "Set a subtask's completion explicitly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			subID, err := parseID("subtask", args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.SetSubtaskComplete(cmd.Context(), taskID, subID, complete); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": subID, "task_id": taskID, "is_complete": complete},
				"meta": progressMeta(ctrl, taskID),
			})
		},
	}
	cmd.Flags().BoolVar(&complete, "complete", true, "Completion state (--complete=false to reopen)")
	return cmd
}

// progressMeta reports the task's checklist ratio after a change.
func progressMeta(ctrl *board.Controller, taskID int64) map[string]any {
	t, ok := ctrl.Task(taskID)
	if !ok {
		return nil
	}
	done, total := t.SubtaskProgress()
	return map[string]any{"progress": strconv.Itoa(done) + "/" + strconv.Itoa(total)}
}
