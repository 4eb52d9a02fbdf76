package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskboard-cli/internal/model"
)

func TestUIState_SaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	// Missing row => zero state.
	st0, err := s.LoadUIState(ctx, "7")
	if err != nil {
		t.Fatalf("LoadUIState: %v", err)
	}
	if st0.ProjectID != "7" || st0.SelectedStatus != "" || st0.SelectedTaskID != 0 {
		t.Fatalf("expected zero state; got %#v", st0)
	}

	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	want := UIState{ProjectID: "7", SelectedStatus: model.StatusInProgress, SelectedTaskID: 42, UpdatedAt: at}
	if err := s.SaveUIState(ctx, want); err != nil {
		t.Fatalf("SaveUIState: %v", err)
	}
	got, err := s.LoadUIState(ctx, "7")
	if err != nil {
		t.Fatalf("LoadUIState (after save): %v", err)
	}
	if got.ProjectID != want.ProjectID || got.SelectedStatus != want.SelectedStatus || got.SelectedTaskID != want.SelectedTaskID || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("roundtrip mismatch:\nwant: %#v\ngot:  %#v", want, got)
	}

	// Upsert replaces the row; other projects are independent.
	want.SelectedTaskID = 43
	if err := s.SaveUIState(ctx, want); err != nil {
		t.Fatalf("SaveUIState (update): %v", err)
	}
	if err := s.SaveUIState(ctx, UIState{ProjectID: "", SelectedStatus: model.StatusDone}); err != nil {
		t.Fatalf("SaveUIState (legacy): %v", err)
	}
	got, _ = s.LoadUIState(ctx, "7")
	if got.SelectedTaskID != 43 {
		t.Fatalf("expected updated task id 43, got %d", got.SelectedTaskID)
	}
	legacy, _ := s.LoadUIState(ctx, "")
	if legacy.SelectedStatus != model.StatusDone {
		t.Fatalf("expected legacy board state, got %#v", legacy)
	}
	if _, err := os.Stat(filepath.Join(s.Dir, "ui_state.sqlite")); err != nil {
		t.Fatalf("expected db file: %v", err)
	}
}

func TestUIState_DisabledStoreIsEmpty(t *testing.T) {
	t.Parallel()

	s := Store{}
	if err := s.SaveUIState(context.Background(), UIState{ProjectID: "7", SelectedTaskID: 1}); err != nil {
		t.Fatalf("SaveUIState: %v", err)
	}
	st, err := s.LoadUIState(context.Background(), "7")
	if err != nil || st.SelectedTaskID != 0 {
		t.Fatalf("expected empty state, got %#v err=%v", st, err)
	}
}

func TestUIState_UnknownStatusIsDropped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	if err := s.SaveUIState(ctx, UIState{ProjectID: "7", SelectedStatus: model.Status("archived"), SelectedTaskID: 5}); err != nil {
		t.Fatalf("SaveUIState: %v", err)
	}
	st, err := s.LoadUIState(ctx, "7")
	if err != nil {
		t.Fatalf("LoadUIState: %v", err)
	}
	if st.SelectedStatus != "" || st.SelectedTaskID != 5 {
		t.Fatalf("unexpected state: %#v", st)
	}
}
