package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskboard-cli/internal/model"
)

// UIState restores the board selection on relaunch, one row per project.
// The legacy board is stored under the empty project id.
type UIState struct {
	ProjectID      string
	SelectedStatus model.Status
	SelectedTaskID int64
	UpdatedAt      time.Time
}

// LoadUIState returns the saved state for projectID, or a zero state when
// nothing was saved or the store is disabled.
func (s Store) LoadUIState(ctx context.Context, projectID string) (UIState, error) {
	st := UIState{ProjectID: projectID}
	if !s.Enabled() {
		return st, nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return st, err
	}
	defer db.Close()

	var status string
	var updated int64
	err = db.QueryRowContext(ctx,
		`SELECT selected_status, selected_task_id, updated_at FROM ui_state WHERE project_id = ?`,
		projectID,
	).Scan(&status, &st.SelectedTaskID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	// Unknown statuses from older rows fall back to the first column.
	if sel := model.Status(status); model.IsKnownStatus(sel) {
		st.SelectedStatus = sel
	}
	st.UpdatedAt = time.UnixMilli(updated).UTC()
	return st, nil
}

func (s Store) SaveUIState(ctx context.Context, st UIState) error {
	if !s.Enabled() {
		return nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO ui_state (project_id, selected_status, selected_task_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			selected_status = excluded.selected_status,
			selected_task_id = excluded.selected_task_id,
			updated_at = excluded.updated_at`,
		st.ProjectID, string(st.SelectedStatus), st.SelectedTaskID, st.UpdatedAt.UnixMilli(),
	)
	return err
}
