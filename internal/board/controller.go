// Package board owns the client-side view of one project board: the task
// cache, every mutation against the REST API, per-task request ordering, the
// drag session and the pure cache-to-view transform.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"taskboard-cli/internal/model"

	"github.com/sirupsen/logrus"
)

type Options struct {
	ProjectID string
	Backend   Backend
	Notifier  Notifier
	// Confirmer answers delete prompts. Without one every delete is declined.
	Confirmer Confirmer
	Painter   Painter
	Logger    logrus.FieldLogger
}

// pendingMove is an optimistic status change awaiting the server.
type pendingMove struct {
	from  model.Status
	to    model.Status
	index int // position in the source column, for the revert
}

type Controller struct {
	projectID string
	backend   Backend
	notifier  Notifier
	confirmer Confirmer
	painter   Painter
	log       logrus.FieldLogger

	lanes *lanes
	drag  *DragSession

	mu       sync.Mutex
	loaded   bool
	tasks    map[int64]model.Task
	order    map[model.Status][]int64
	members  []model.Member
	pending  map[int64]pendingMove
	detailID int64
	view     View

	// loadSeq numbers LoadBoard calls in start order; appliedSeq is the
	// newest one whose result reached the cache. commits counts moves the
	// server confirmed without a follow-up reload.
	loadSeq    uint64
	appliedSeq uint64
	commits    uint64
}

func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, errors.New("board: backend is required")
	}
	c := &Controller{
		projectID: strings.TrimSpace(opts.ProjectID),
		backend:   opts.Backend,
		notifier:  opts.Notifier,
		confirmer: opts.Confirmer,
		painter:   opts.Painter,
		log:       opts.Logger,
		lanes:     newLanes(),
		tasks:     map[int64]model.Task{},
		order:     map[model.Status][]int64{},
		pending:   map[int64]pendingMove{},
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.confirmer == nil {
		c.confirmer = declineAll{}
	}
	if c.painter == nil {
		c.painter = nopPainter{}
	}
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}
	c.log = c.log.WithFields(logrus.Fields{"component": "board", "project": c.projectID})
	c.view = BuildView(nil, nil, nil, nil)
	c.drag = &DragSession{c: c}
	return c, nil
}

func (c *Controller) ProjectID() string { return c.projectID }

// Drag returns the controller's single drag session.
func (c *Controller) Drag() *DragSession { return c.drag }

// LoadBoard fetches members, then tasks, and replaces the cache and the view
// in full. On failure the cache is left as it was. A result that lands after a
// newer load was applied, or after a move was confirmed, is dropped.
func (c *Controller) LoadBoard(ctx context.Context) error {
	c.mu.Lock()
	c.loadSeq++
	seq, commits := c.loadSeq, c.commits
	c.mu.Unlock()

	members, err := c.backend.ListMembers(ctx)
	if err != nil {
		c.notify(LevelWarning, "Could not load members", err)
		return fmt.Errorf("load members: %w", err)
	}
	tasks, err := c.backend.ListTasks(ctx)
	if err != nil {
		c.notify(LevelWarning, "Could not load tasks", err)
		return fmt.Errorf("load tasks: %w", err)
	}

	c.mu.Lock()
	if seq < c.appliedSeq || commits != c.commits {
		c.mu.Unlock()
		c.log.WithField("seq", seq).Debug("stale board load discarded")
		return nil
	}
	c.appliedSeq = seq
	c.members = append([]model.Member(nil), members...)
	c.replaceTasksLocked(tasks)
	c.loaded = true
	if c.detailID != 0 {
		if _, ok := c.tasks[c.detailID]; !ok {
			c.detailID = 0
		}
	}
	n := len(c.tasks)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"tasks": n, "members": len(members)}).Debug("board loaded")
	c.paint()
	return nil
}

// replaceTasksLocked rebuilds the cache from a fetch. Moves still in flight
// keep their optimistic status on top of the fetched one.
func (c *Controller) replaceTasksLocked(tb model.TasksByStatus) {
	c.tasks = map[int64]model.Task{}
	c.order = map[model.Status][]int64{}
	for _, t := range tb.Flatten() {
		if _, dup := c.tasks[t.ID]; dup {
			continue
		}
		c.tasks[t.ID] = t
		c.order[t.Status] = append(c.order[t.Status], t.ID)
	}
	for id, pm := range c.pending {
		t, ok := c.tasks[id]
		if !ok {
			continue
		}
		if t.Status != pm.to {
			pm.index = c.moveLocked(id, t.Status, pm.to, -1)
			c.pending[id] = pm
		}
	}
}

// moveLocked moves id from one status to another in the cache. The card is
// inserted at index in the target column, or appended when index < 0. It
// returns the index the card had in its source column.
func (c *Controller) moveLocked(id int64, from, to model.Status, index int) int {
	src := c.order[from]
	was := -1
	for i, oid := range src {
		if oid == id {
			was = i
			c.order[from] = append(src[:i:i], src[i+1:]...)
			break
		}
	}
	dst := c.order[to]
	if index < 0 || index > len(dst) {
		index = len(dst)
	}
	next := make([]int64, 0, len(dst)+1)
	next = append(next, dst[:index]...)
	next = append(next, id)
	next = append(next, dst[index:]...)
	c.order[to] = next

	t := c.tasks[id]
	t.Status = to
	c.tasks[id] = t
	return was
}

// reload refreshes after a successful mutation. A failed refresh has already
// been reported by LoadBoard.
func (c *Controller) reload(ctx context.Context) {
	_ = c.LoadBoard(ctx)
}

func (c *Controller) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		c.notify(LevelWarning, "Task not saved", err)
		return model.Task{}, err
	}
	t, err := c.backend.CreateTask(ctx, in)
	if err != nil {
		c.notify(LevelError, "Could not create task", err)
		return model.Task{}, err
	}
	c.log.WithField("task", t.ID).Info("task created")
	c.notify(LevelInfo, "Task created", nil)
	c.reload(ctx)
	return t, nil
}

func (c *Controller) UpdateTask(ctx context.Context, id int64, in model.TaskInput) (model.Task, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		c.notify(LevelWarning, "Task not saved", err)
		return model.Task{}, err
	}
	release, err := c.lanes.acquire(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	defer release()

	if _, err := c.requireTask(id); err != nil {
		c.notify(LevelWarning, "Task not saved", err)
		return model.Task{}, err
	}
	t, err := c.backend.UpdateTask(ctx, id, in)
	if err != nil {
		c.notify(LevelError, "Could not update task", err)
		return model.Task{}, err
	}
	c.notify(LevelInfo, "Task updated", nil)
	c.reload(ctx)
	return t, nil
}

// DeleteTask asks for confirmation first. A declined prompt sends nothing and
// returns (false, nil).
func (c *Controller) DeleteTask(ctx context.Context, id int64) (bool, error) {
	t, err := c.requireTask(id)
	if err != nil {
		c.notify(LevelWarning, "Task not deleted", err)
		return false, err
	}
	if !c.confirmer.Confirm(ctx, fmt.Sprintf("Delete task %q?", t.Content)) {
		c.log.WithField("task", id).Debug("delete declined")
		return false, nil
	}

	release, err := c.lanes.acquire(ctx, id)
	if err != nil {
		return false, err
	}
	defer release()

	if _, err := c.requireTask(id); err != nil {
		c.notify(LevelWarning, "Task not deleted", err)
		return false, err
	}
	if err := c.backend.DeleteTask(ctx, id); err != nil {
		c.notify(LevelError, "Could not delete task", err)
		return false, err
	}

	c.mu.Lock()
	if c.detailID == id {
		c.detailID = 0
	}
	c.mu.Unlock()

	c.log.WithField("task", id).Info("task deleted")
	c.notify(LevelInfo, "Task deleted", nil)
	c.reload(ctx)
	return true, nil
}

// MoveTask sets a task's status. The cache and the view change before the
// request is sent; a failed request puts the task back where it was.
func (c *Controller) MoveTask(ctx context.Context, id int64, status model.Status) error {
	if !model.IsKnownStatus(status) {
		err := model.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
		c.notify(LevelWarning, "Task not moved", err)
		return err
	}
	release, err := c.lanes.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	c.mu.Lock()
	t, ok := c.tasks[id]
	if !ok {
		c.mu.Unlock()
		err := fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		c.notify(LevelWarning, "Task not moved", err)
		return err
	}
	if t.Status == status {
		c.mu.Unlock()
		return nil
	}
	from := t.Status
	idx := c.moveLocked(id, from, status, -1)
	c.pending[id] = pendingMove{from: from, to: status, index: idx}
	c.mu.Unlock()
	c.paint()

	log := c.log.WithFields(logrus.Fields{"task": id, "from": from, "to": status})
	err = c.backend.SetTaskStatus(ctx, id, status)

	c.mu.Lock()
	pm := c.pending[id]
	delete(c.pending, id)
	if err == nil {
		c.commits++
	} else {
		// The task may have been deleted or moved again by a reload meanwhile.
		if cur, ok := c.tasks[id]; ok && cur.Status == pm.to {
			c.moveLocked(id, pm.to, pm.from, pm.index)
		}
	}
	c.mu.Unlock()
	c.paint()

	if err != nil {
		log.WithError(err).Warn("move failed, reverted")
		c.notify(LevelError, "Could not move task", err)
		return err
	}
	log.Info("task moved")
	c.notify(LevelInfo, "Moved to "+model.StatusLabel(status), nil)
	return nil
}

func (c *Controller) AddSubtask(ctx context.Context, taskID int64, content string) (model.Subtask, error) {
	content = strings.TrimSpace(content)
	if err := model.Required("content", content); err != nil {
		c.notify(LevelWarning, "Subtask not added", err)
		return model.Subtask{}, err
	}
	release, err := c.lanes.acquire(ctx, taskID)
	if err != nil {
		return model.Subtask{}, err
	}
	defer release()

	if _, err := c.requireTask(taskID); err != nil {
		c.notify(LevelWarning, "Subtask not added", err)
		return model.Subtask{}, err
	}
	st, err := c.backend.CreateSubtask(ctx, taskID, content)
	if err != nil {
		c.notify(LevelError, "Could not add subtask", err)
		return model.Subtask{}, err
	}
	c.reload(ctx)
	return st, nil
}

// ToggleSubtask flips a subtask's completion and returns the new state.
func (c *Controller) ToggleSubtask(ctx context.Context, taskID, subtaskID int64) (bool, error) {
	release, err := c.lanes.acquire(ctx, taskID)
	if err != nil {
		return false, err
	}
	defer release()

	st, err := c.requireSubtask(taskID, subtaskID)
	if err != nil {
		c.notify(LevelWarning, "Subtask not updated", err)
		return false, err
	}
	next := !st.IsComplete
	if err := c.setSubtaskLocked(ctx, subtaskID, next); err != nil {
		return st.IsComplete, err
	}
	return next, nil
}

func (c *Controller) SetSubtaskComplete(ctx context.Context, taskID, subtaskID int64, complete bool) error {
	release, err := c.lanes.acquire(ctx, taskID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := c.requireSubtask(taskID, subtaskID); err != nil {
		c.notify(LevelWarning, "Subtask not updated", err)
		return err
	}
	return c.setSubtaskLocked(ctx, subtaskID, complete)
}

// setSubtaskLocked runs while the caller holds the task's lane.
func (c *Controller) setSubtaskLocked(ctx context.Context, subtaskID int64, complete bool) error {
	if err := c.backend.SetSubtaskComplete(ctx, subtaskID, complete); err != nil {
		c.notify(LevelError, "Could not update subtask", err)
		return err
	}
	c.reload(ctx)
	return nil
}

func (c *Controller) AddComment(ctx context.Context, taskID int64, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if err := model.Required("content", content); err != nil {
		c.notify(LevelWarning, "Comment not added", err)
		return model.Comment{}, err
	}
	release, err := c.lanes.acquire(ctx, taskID)
	if err != nil {
		return model.Comment{}, err
	}
	defer release()

	if _, err := c.requireTask(taskID); err != nil {
		c.notify(LevelWarning, "Comment not added", err)
		return model.Comment{}, err
	}
	cm, err := c.backend.AddComment(ctx, taskID, content)
	if err != nil {
		c.notify(LevelError, "Could not add comment", err)
		return model.Comment{}, err
	}
	c.reload(ctx)
	return cm, nil
}

// Comments fetches a task's comments. They are not cached.
func (c *Controller) Comments(ctx context.Context, taskID int64) ([]model.Comment, error) {
	out, err := c.backend.ListComments(ctx, taskID)
	if err != nil {
		c.notify(LevelWarning, "Could not load comments", err)
		return nil, err
	}
	return out, nil
}

// AddMember invites a user by email, then refreshes the member list so
// assignee names and options pick up the change.
func (c *Controller) AddMember(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := model.Required("email", email); err != nil {
		c.notify(LevelWarning, "Member not added", err)
		return "", err
	}
	msg, err := c.backend.AddMember(ctx, email)
	if err != nil {
		c.notify(LevelError, "Could not add member", err)
		return "", err
	}
	if msg == "" {
		msg = "Member added"
	}
	c.notify(LevelInfo, msg, nil)

	members, err := c.backend.ListMembers(ctx)
	if err != nil {
		c.notify(LevelWarning, "Could not load members", err)
		return msg, nil
	}
	c.mu.Lock()
	c.members = append([]model.Member(nil), members...)
	c.mu.Unlock()
	c.paint()
	return msg, nil
}

func (c *Controller) requireTask(id int64) (model.Task, error) {
	t, ok := c.Task(id)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return t, nil
}

func (c *Controller) requireSubtask(taskID, subtaskID int64) (model.Subtask, error) {
	t, err := c.requireTask(taskID)
	if err != nil {
		return model.Subtask{}, err
	}
	st, ok := t.FindSubtask(subtaskID)
	if !ok {
		return model.Subtask{}, fmt.Errorf("subtask %d not found on task %d", subtaskID, taskID)
	}
	return st, nil
}

// Task returns a copy of the cached task.
func (c *Controller) Task(id int64) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	t.Subtasks = append([]model.Subtask(nil), t.Subtasks...)
	return t, true
}

// Tasks returns every cached task: the columns in order, then tasks with
// statuses the board does not show.
func (c *Controller) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	tb := model.TasksByStatus{}
	for st, ids := range c.order {
		for _, id := range ids {
			t, ok := c.tasks[id]
			if !ok {
				continue
			}
			t.Subtasks = append([]model.Subtask(nil), t.Subtasks...)
			tb[st] = append(tb[st], t)
		}
	}
	return tb.Flatten()
}

func (c *Controller) Members() []model.Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Member(nil), c.members...)
}

// Loaded reports whether at least one LoadBoard has succeeded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// View returns the most recently built view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// AssigneeOption is one entry of the assignee picker. ID is nil for "Unassigned".
type AssigneeOption struct {
	ID    *int64
	Label string
}

func (c *Controller) AssigneeOptions() []AssigneeOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AssigneeOption, 0, len(c.members)+1)
	out = append(out, AssigneeOption{Label: unassignedLabel})
	for _, m := range c.members {
		id := m.UserID
		label := m.Name
		if label == "" {
			label = m.Email
		}
		out = append(out, AssigneeOption{ID: &id, Label: label})
	}
	return out
}

func (c *Controller) OpenDetail(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tasks[id]; !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	c.detailID = id
	return nil
}

func (c *Controller) CloseDetail() {
	c.mu.Lock()
	c.detailID = 0
	c.mu.Unlock()
}

// Detail returns the task shown in the detail view, if one is open.
func (c *Controller) Detail() (model.Task, bool) {
	c.mu.Lock()
	id := c.detailID
	c.mu.Unlock()
	if id == 0 {
		return model.Task{}, false
	}
	return c.Task(id)
}

func (c *Controller) paint() {
	c.mu.Lock()
	pending := make(map[int64]bool, len(c.pending))
	for id := range c.pending {
		pending[id] = true
	}
	v := BuildView(c.tasks, c.order, c.members, pending)
	c.view = v
	c.mu.Unlock()
	c.painter.Paint(v)
}

func (c *Controller) notify(level Level, msg string, err error) {
	c.notifier.Notify(Notice{Level: level, Message: msg, Err: err})
}
