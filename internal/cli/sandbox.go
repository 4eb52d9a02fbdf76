package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"taskboard-cli/internal/sandbox"

	"github.com/spf13/cobra"
)

func newSandboxCmd(app *App) *cobra.Command {
	var addr string
	var empty bool

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run an in-memory board server to try the client against",
		Long: strings.TrimSpace(`
Run a local, in-memory implementation of the board API.

Data lives only as long as the process. The legacy routes (/tasks, ...) and
/projects/{id}/... routes are both served; --project picks which project
is seeded besides the legacy board.
`),
		Example: strings.TrimSpace(`
# Terminal 1
taskboard sandbox --addr 127.0.0.1:5000 --project 7

# Terminal 2
taskboard --server http://127.0.0.1:5000 --project 7
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("sandbox: missing --addr"))
			}

			project := strings.TrimSpace(app.cfg.Project)
			srv := sandbox.New(app.logger())
			if !empty {
				srv.SeedDemo(project)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr

			hints := []string{"taskboard --server " + url}
			if project != "" {
				hints[0] += " --project " + project
			}
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"project":   project,
					"seeded":    !empty,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "Sandbox running at %s\n", url)

			hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				_ = hs.Close()
			}()
			if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&empty, "empty", false, "Start with no tasks or members")
	return cmd
}
