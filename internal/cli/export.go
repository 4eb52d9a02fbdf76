package cli

import (
	"strings"
	"time"

	"taskboard-cli/internal/model"
	"taskboard-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var to string
	var html bool
	var overwrite bool
	var comments bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board to markdown (and optionally HTML)",
		Example: strings.TrimSpace(`
taskboard export --to ./out
taskboard export --to ./out --html --comments --overwrite
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap := publish.Snapshot{
				ProjectID:   ctrl.ProjectID(),
				View:        ctrl.View(),
				Tasks:       ctrl.Tasks(),
				GeneratedAt: time.Now(),
			}
			if comments {
				snap.Comments = map[int64][]model.Comment{}
				for _, t := range snap.Tasks {
					if t.CommentCount == 0 {
						continue
					}
					cs, err := ctrl.Comments(cmd.Context(), t.ID)
					if err != nil {
						return writeErr(cmd, err)
					}
					snap.Comments[t.ID] = cs
				}
			}
			res, err := publish.WriteBoard(snap, to, publish.WriteOptions{Overwrite: overwrite, HTML: html})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"meta": map[string]any{"tasks": len(snap.Tasks)},
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&html, "html", false, "Also write board.html")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&comments, "comments", false, "Fetch and include comments (one request per commented task)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
