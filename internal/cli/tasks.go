package cli

import (
	"fmt"
	"strconv"
	"strings"

	"taskboard-cli/internal/model"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	return cmd
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", kind, s)
	}
	return id, nil
}

func newTasksListCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in board order",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter model.Status
			if strings.TrimSpace(status) != "" {
				st, err := model.ParseStatus(status)
				if err != nil {
					return writeErr(cmd, err)
				}
				filter = st
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := []model.Task{}
			for _, t := range ctrl.Tasks() {
				if filter == "" || t.Status == filter {
					out = append(out, t)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"project": ctrl.ProjectID(), "count": len(out)},
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (todo|inprogress|done)")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, ok := ctrl.Task(id)
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
}

// taskFlags are shared by create and update.
type taskFlags struct {
	content  string
	priority string
	due      string
	assignee int64
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.content, "content", "", "Task text")
	cmd.Flags().StringVar(&f.priority, "priority", "", "low|medium|high (default medium)")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date YYYY-MM-DD; empty clears it on update")
	cmd.Flags().Int64Var(&f.assignee, "assignee", 0, "Assignee user id; 0 leaves the task unassigned")
}

// apply overlays the flags the user actually passed onto in.
func (f *taskFlags) apply(cmd *cobra.Command, in model.TaskInput) (model.TaskInput, error) {
	fs := cmd.Flags()
	if flagSet(fs, "content") {
		in.Content = f.content
	}
	if flagSet(fs, "priority") {
		p, err := model.ParsePriority(f.priority)
		if err != nil {
			return in, err
		}
		in.Priority = p
	}
	if flagSet(fs, "due") {
		d, err := model.ParseDueDate(f.due)
		if err != nil {
			return in, err
		}
		in.DueDate = d
	}
	if flagSet(fs, "assignee") {
		in.AssigneeID = nil
		if f.assignee > 0 {
			a := f.assignee
			in.AssigneeID = &a
		}
	}
	return in, nil
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in To Do",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.apply(cmd, model.TaskInput{})
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := ctrl.CreateTask(cmd.Context(), in)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   t,
				"_hints": []string{"taskboard tasks move " + strconv.FormatInt(t.ID, 10) + " --status inprogress"},
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task's content, priority, due date or assignee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			cur, ok := ctrl.Task(id)
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			// Unset flags keep the current values; the API replaces all fields.
			in, err := f.apply(cmd, model.InputFromTask(cur))
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := ctrl.UpdateTask(cmd.Context(), id, in)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	f.register(cmd)
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task (asks first unless --yes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, confirmerFor(cmd, yes))
			if err != nil {
				return writeErr(cmd, err)
			}
			deleted, err := ctrl.DeleteTask(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": id, "deleted": deleted},
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := model.ParseStatus(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, ok := ctrl.Task(id); !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			if err := ctrl.MoveTask(cmd.Context(), id, st); err != nil {
				return writeErr(cmd, err)
			}
			t, _ := ctrl.Task(id)
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Target status (todo|inprogress|done)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}
