package cli

import (
	"strconv"
	"strings"

	"taskboard-cli/internal/model"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsCreateCmd(app))
	return cmd
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.Required("name", name); err != nil {
				return writeErr(cmd, err)
			}
			client, err := app.client(app.logger())
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := client.CreateProject(cmd.Context(), strings.TrimSpace(name))
			if err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]any{"data": p}
			if p.ID != 0 {
				out["_hints"] = []string{"taskboard config set project " + strconv.FormatInt(p.ID, 10)}
			}
			return writeOut(cmd, app, out)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
