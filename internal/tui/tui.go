package tui

import (
	"context"
	"errors"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/logging"
	"taskboard-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Backend   board.Backend
	ProjectID string
	// Store persists the selection between runs. The zero Store disables it.
	Store store.Store
	// Logger must not write to the terminal; pass a file logger.
	Logger logrus.FieldLogger
	Theme  string
}

// Run starts the interactive board and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	applyThemePreference(opts.Theme)
	applyColorProfilePreference()

	saved, err := opts.Store.LoadUIState(ctx, opts.ProjectID)
	if err != nil {
		log.WithError(err).Warn("ui state not restored")
	}

	br := newBridge()
	defer br.close()

	ctrl, err := board.New(board.Options{
		ProjectID: opts.ProjectID,
		Backend:   opts.Backend,
		Notifier:  br,
		Confirmer: br,
		Painter:   br,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	m := newAppModel(ctx, ctrl, br, saved, log)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	if fm, ok := final.(appModel); ok {
		// ctx may already be cancelled; the write is local and short.
		if err := opts.Store.SaveUIState(context.Background(), fm.uiState()); err != nil {
			log.WithError(err).Warn("ui state not saved")
		}
	}
	return nil
}
