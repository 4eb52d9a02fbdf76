package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/board"
	"taskboard-cli/internal/config"
	"taskboard-cli/internal/format"
	"taskboard-cli/internal/logging"
	"taskboard-cli/internal/store"
	"taskboard-cli/internal/tui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"
)

type App struct {
	Server    string
	Project   string
	Format    formatFlag
	Pretty    bool
	Verbose   bool
	ConfigDir string

	cfg config.Config
	log *logrus.Logger
	// tracer is set with --verbose and shut down after the command.
	tracer interface {
		trace.TracerProvider
		Shutdown(context.Context) error
	}
}

// formatFlag validates --format while flags are parsed.
type formatFlag string

func (f *formatFlag) String() string { return string(*f) }
func (f *formatFlag) Type() string   { return "format" }
func (f *formatFlag) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, ok := range format.Formats() {
		if v == ok {
			*f = formatFlag(v)
			return nil
		}
	}
	return fmt.Errorf("want one of %s", strings.Join(format.Formats(), "|"))
}

var _ pflag.Value = (*formatFlag)(nil)

func NewRootCmd() *cobra.Command {
	app := &App{Format: "json"}

	cmd := &cobra.Command{
		Use:          "taskboard",
		Short:        "Kanban board client (TUI + scriptable CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive board
  taskboard --project 7

  # Scriptable commands
  taskboard tasks list
  taskboard tasks move 12 --status done

  # Direct task lookup (shortcut for: taskboard tasks show 12)
  taskboard 12

  # Try it without a server
  taskboard sandbox --addr 127.0.0.1:5000
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive board.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.tracer != nil {
			return app.tracer.Shutdown(cmd.Context())
		}
		return nil
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&app.Server, "server", "", "API base URL (default from config, then "+config.DefaultServer+")")
	fs.StringVar(&app.Project, "project", "", "Project id; empty uses the legacy single board")
	fs.Var(&app.Format, "format", "Output format (json|text)")
	fs.BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")
	fs.BoolVarP(&app.Verbose, "verbose", "v", false, "Log requests to stderr")
	fs.StringVar(&app.ConfigDir, "config-dir", "", "Config directory (default ~/.taskboard, or $TASKBOARD_CONFIG_DIR)")

	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newSubtasksCmd(app))
	cmd.AddCommand(newCommentsCmd(app))
	cmd.AddCommand(newMembersCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newSandboxCmd(app))

	return cmd
}

// setup resolves config (file, .env, env, then flags) and builds the logger.
func (app *App) setup(cmd *cobra.Command) error {
	dir, err := app.configDir()
	if err != nil {
		return err
	}
	wd, _ := os.Getwd()
	cfg, err := config.Load(dir, wd)
	if err != nil {
		return err
	}
	fs := cmd.Flags()
	if flagSet(fs, "server") {
		cfg.Server = strings.TrimSpace(app.Server)
	}
	if flagSet(fs, "project") {
		cfg.Project = strings.TrimSpace(app.Project)
	}
	app.cfg = cfg

	level := cfg.LogLevel
	if app.Verbose {
		level = "debug"
	}
	lg, err := logging.New(logging.Options{Level: level, Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	app.log = lg
	if app.Verbose {
		app.tracer = logging.NewTracerProvider(lg)
	}
	return nil
}

func flagSet(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

func (app *App) configDir() (string, error) {
	if d := strings.TrimSpace(app.ConfigDir); d != "" {
		return d, nil
	}
	return config.Dir()
}

func (app *App) logger() *logrus.Logger {
	if app.log == nil {
		return logging.Discard()
	}
	return app.log
}

func (app *App) client(log logrus.FieldLogger) (*api.Client, error) {
	opts := api.Options{
		BaseURL:         app.cfg.Server,
		ProjectID:       app.cfg.Project,
		Session:         app.cfg.Session,
		Timeout:         app.cfg.RequestTimeout(),
		BreakerFailures: app.cfg.BreakerFailures(),
		BreakerCooldown: app.cfg.BreakerCooldown(),
		Logger:          log,
	}
	if app.tracer != nil {
		opts.TracerProvider = app.tracer
	}
	return api.New(opts)
}

// controller builds a board controller and loads the board so commands can
// address cached tasks.
func (app *App) controller(cmd *cobra.Command, confirm board.Confirmer) (*board.Controller, error) {
	client, err := app.client(app.logger())
	if err != nil {
		return nil, err
	}
	ctrl, err := board.New(board.Options{
		ProjectID: app.cfg.Project,
		Backend:   client,
		Notifier:  logNotifier{log: app.logger()},
		Confirmer: confirm,
		Logger:    app.logger(),
	})
	if err != nil {
		return nil, err
	}
	if err := ctrl.LoadBoard(cmd.Context()); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	dir, err := app.configDir()
	if err != nil {
		return writeErr(cmd, err)
	}
	logFile := app.cfg.LogFile
	if logFile == "" {
		logFile = config.DefaultLogFile(dir)
	}
	level := app.cfg.LogLevel
	if app.Verbose {
		level = "debug"
	}
	// The board owns the terminal; logs go to the rotating file only.
	lg, err := logging.New(logging.Options{File: logFile, Level: level})
	if err != nil {
		return writeErr(cmd, err)
	}
	client, err := app.client(lg)
	if err != nil {
		return writeErr(cmd, err)
	}
	err = tui.Run(cmd.Context(), tui.Options{
		Backend:   client,
		ProjectID: app.cfg.Project,
		Store:     store.Store{Dir: dir},
		Logger:    lg,
		Theme:     app.cfg.Theme,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, string(app.Format), app.Pretty)
}

// writeErr prints the user-facing message for err and returns it for the exit code.
func writeErr(cmd *cobra.Command, err error) error {
	msg := err.Error()
	var se api.ServerError
	var ne api.NetworkError
	if errors.As(err, &se) || errors.As(err, &ne) {
		msg = api.Message(err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "error: "+msg)
	return err
}

// logNotifier routes controller notices to the log. Failures also come back
// as errors, so they are logged below warn to avoid printing them twice.
type logNotifier struct {
	log logrus.FieldLogger
}

func (n logNotifier) Notify(no board.Notice) {
	switch no.Level {
	case board.LevelInfo:
		n.log.Info(no.String())
	default:
		n.log.Debug(no.String())
	}
}

// stdinConfirmer asks on stderr and reads y/yes from stdin.
type stdinConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c stdinConfirmer) Confirm(ctx context.Context, prompt string) bool {
	if ctx.Err() != nil {
		return false
	}
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	var line string
	if _, err := fmt.Fscanln(c.in, &line); err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func confirmerFor(cmd *cobra.Command, yes bool) board.Confirmer {
	if yes {
		return assumeYes{}
	}
	return stdinConfirmer{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}
}

// assumeYes is the confirmer for --yes.
type assumeYes struct{}

func (assumeYes) Confirm(context.Context, string) bool { return true }
