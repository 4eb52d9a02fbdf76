package cli

import (
	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print the board: columns, counts and cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			v := ctrl.View()
			return writeOut(cmd, app, map[string]any{
				"data": v,
				"meta": map[string]any{
					"project": ctrl.ProjectID(),
					"total":   v.Total(),
					"members": len(ctrl.Members()),
				},
			})
		},
	}
}
