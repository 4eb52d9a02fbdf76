package model

import "sort"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
)

// Statuses returns the board columns in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

type Task struct {
	ID           int64     `json:"id"`
	Content      string    `json:"content"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority,omitempty"`
	DueDate      *string   `json:"due_date,omitempty"` // YYYY-MM-DD
	AssigneeID   *int64    `json:"assignee_id,omitempty"`
	AssigneeName string    `json:"assignee_name,omitempty"`
	Subtasks     []Subtask `json:"subtasks,omitempty"`
	CommentCount int       `json:"comment_count"`
}

// EffectivePriority is the task priority with the server default applied.
func (t Task) EffectivePriority() Priority {
	if t.Priority == "" {
		return PriorityMedium
	}
	return t.Priority
}

// SubtaskProgress returns (completed, total) over the task's subtasks.
func (t Task) SubtaskProgress() (int, int) {
	done := 0
	for _, st := range t.Subtasks {
		if st.IsComplete {
			done++
		}
	}
	return done, len(t.Subtasks)
}

func (t Task) FindSubtask(id int64) (Subtask, bool) {
	for _, st := range t.Subtasks {
		if st.ID == id {
			return st, true
		}
	}
	return Subtask{}, false
}

type Subtask struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"task_id,omitempty"`
	Content    string `json:"content"`
	IsComplete bool   `json:"is_complete"`
	CreatedBy  int64  `json:"created_by,omitempty"`
}

type Comment struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type Member struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

type Project struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// TasksByStatus is the shape of the task listing: status -> tasks in server order.
type TasksByStatus map[Status][]Task

// Flatten returns all tasks in column order, then any unknown statuses in key order.
// Tasks listed without a status take the status of the group they were listed under.
func (tb TasksByStatus) Flatten() []Task {
	keys := make([]Status, 0, len(tb))
	keys = append(keys, Statuses()...)
	extra := make([]string, 0)
	for st := range tb {
		if !IsKnownStatus(st) {
			extra = append(extra, string(st))
		}
	}
	sort.Strings(extra)
	for _, st := range extra {
		keys = append(keys, Status(st))
	}

	out := make([]Task, 0)
	for _, st := range keys {
		for _, t := range tb[st] {
			if t.Status == "" {
				t.Status = st
			}
			out = append(out, t)
		}
	}
	return out
}
