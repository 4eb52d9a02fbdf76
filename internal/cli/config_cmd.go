package cli

import (
	"strings"

	"taskboard-cli/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved settings (file, .env, env and flags applied)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.configDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg := app.cfg
			if cfg.Session != "" {
				cfg.Session = "(set)"
			}
			return writeOut(cmd, app, map[string]any{
				"data": cfg,
				"meta": map[string]any{
					"path":    config.Path(dir),
					"timeout": cfg.RequestTimeout().String(),
					"keys":    config.Keys(),
				},
			})
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save one setting to the config file",
		Long:  "Known keys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.configDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			// Only the file's own values are written back, not env or flag overrides.
			cfg, err := config.LoadFile(dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.Save(dir, cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"key": args[0], "value": strings.TrimSpace(args[1])},
				"meta": map[string]any{"path": config.Path(dir)},
			})
		},
	}
}
