package board

import (
	"context"
	"fmt"
	"sync"

	"taskboard-cli/internal/model"
)

type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragDropped
)

func (s DragState) String() string {
	switch s {
	case DragDragging:
		return "dragging"
	case DragDropped:
		return "dropped"
	default:
		return "idle"
	}
}

// DragSession tracks the one card being carried between columns.
//
//	Idle --BeginDrag--> Dragging --Drop--> Dropped --(request resolves)--> Idle
//	                    Dragging --CancelDrag--> Idle
type DragSession struct {
	c *Controller

	mu     sync.Mutex
	state  DragState
	taskID int64
	source model.Status
	target model.Status
}

// DragInfo is a snapshot of the session.
type DragInfo struct {
	State  DragState
	TaskID int64
	Source model.Status
	Target model.Status
}

func (d *DragSession) Info() DragInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DragInfo{State: d.state, TaskID: d.taskID, Source: d.source, Target: d.target}
}

func (d *DragSession) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// BeginDrag picks up a cached task and records its source column.
func (d *DragSession) BeginDrag(id int64) error {
	t, ok := d.c.Task(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragIdle {
		return fmt.Errorf("%w: begin while %s", ErrDragState, d.state)
	}
	d.state = DragDragging
	d.taskID = id
	d.source = t.Status
	d.target = t.Status
	return nil
}

// Drop releases the card over target. Dropping on the source column only
// ends the session. Otherwise the move is applied optimistically and Drop
// returns once the status request has resolved.
func (d *DragSession) Drop(ctx context.Context, target model.Status) error {
	d.mu.Lock()
	if d.state != DragDragging {
		st := d.state
		d.mu.Unlock()
		return fmt.Errorf("%w: drop while %s", ErrDragState, st)
	}
	id, source := d.taskID, d.source
	if target == source {
		d.resetLocked()
		d.mu.Unlock()
		return nil
	}
	d.state = DragDropped
	d.target = target
	d.mu.Unlock()

	err := d.c.MoveTask(ctx, id, target)

	d.mu.Lock()
	d.resetLocked()
	d.mu.Unlock()
	return err
}

func (d *DragSession) CancelDrag() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragDragging {
		return fmt.Errorf("%w: cancel while %s", ErrDragState, d.state)
	}
	d.resetLocked()
	return nil
}

func (d *DragSession) resetLocked() {
	d.state = DragIdle
	d.taskID = 0
	d.source = ""
	d.target = ""
}
