package cli

import (
	"github.com/spf13/cobra"
)

func newMembersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Project member commands",
	}
	cmd.AddCommand(newMembersListCmd(app))
	cmd.AddCommand(newMembersAddCmd(app))
	return cmd
}

func newMembersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List project members, owners first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ctrl.Members()})
		},
	}
}

func newMembersAddCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Invite a user to the project by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			msg, err := ctrl.AddMember(cmd.Context(), email)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"email": email, "message": msg},
				"meta": map[string]any{"members": len(ctrl.Members())},
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the user to add")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
