package board

import (
	"context"
	"errors"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrDragState    = errors.New("invalid drag transition")
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-facing message. Err is set for failures.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

func (n Notice) String() string {
	if n.Err == nil {
		return n.Message
	}
	return n.Message + ": " + describeErr(n.Err)
}

type Notifier interface {
	Notify(Notice)
}

// Confirmer asks a blocking yes/no question. A cancelled ctx counts as "no".
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Painter receives a full view every time the board changes.
type Painter interface {
	Paint(View)
}

// Backend is the part of *api.Client the controller uses.
type Backend interface {
	ListTasks(ctx context.Context) (model.TasksByStatus, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id int64, in model.TaskInput) (model.Task, error)
	SetTaskStatus(ctx context.Context, id int64, status model.Status) error
	DeleteTask(ctx context.Context, id int64) error
	AddMember(ctx context.Context, email string) (string, error)
	CreateSubtask(ctx context.Context, taskID int64, content string) (model.Subtask, error)
	SetSubtaskComplete(ctx context.Context, id int64, complete bool) error
	ListComments(ctx context.Context, taskID int64) ([]model.Comment, error)
	AddComment(ctx context.Context, taskID int64, content string) (model.Comment, error)
}

var _ Backend = (*api.Client)(nil)

type NotifyFunc func(Notice)

func (f NotifyFunc) Notify(n Notice) { f(n) }

type PaintFunc func(View)

func (f PaintFunc) Paint(v View) { f(v) }

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

type nopPainter struct{}

func (nopPainter) Paint(View) {}

// declineAll is the Confirmer used when none is configured.
type declineAll struct{}

func (declineAll) Confirm(context.Context, string) bool { return false }

func describeErr(err error) string {
	if err == nil {
		return ""
	}
	return api.Message(err)
}
