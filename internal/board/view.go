package board

import (
	"strconv"
	"strings"

	"taskboard-cli/internal/model"
)

const unassignedLabel = "Unassigned"

// View is the painted board: the three status columns in fixed order.
type View struct {
	Columns []Column `json:"columns"`
}

type Column struct {
	Status model.Status `json:"status"`
	Label  string       `json:"label"`
	Count  int          `json:"count"`
	Cards  []Card       `json:"cards"`
}

type Card struct {
	ID            int64          `json:"id"`
	Content       string         `json:"content"`
	Priority      model.Priority `json:"priority"`
	Assignee      string         `json:"assignee"`
	DueDate       string         `json:"due_date,omitempty"`
	SubtasksDone  int            `json:"subtasks_done"`
	SubtasksTotal int            `json:"subtasks_total"`
	CommentCount  int            `json:"comment_count"`
	// Pending marks a move whose status request has not resolved yet.
	Pending bool `json:"pending,omitempty"`
}

// Progress renders the subtask ratio ("2/3"), or "" for a card without subtasks.
func (c Card) Progress() string {
	if c.SubtasksTotal == 0 {
		return ""
	}
	return strconv.Itoa(c.SubtasksDone) + "/" + strconv.Itoa(c.SubtasksTotal)
}

// BuildView turns the cache into a view. It is pure: tasks and order are read,
// never modified. order lists ids per status in server order; ids missing from
// tasks are skipped, and statuses outside the three columns are not shown.
func BuildView(tasks map[int64]model.Task, order map[model.Status][]int64, members []model.Member, pending map[int64]bool) View {
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.Name
	}

	statuses := model.Statuses()
	cols := make([]Column, 0, len(statuses))
	for _, st := range statuses {
		col := Column{Status: st, Label: model.StatusLabel(st), Cards: []Card{}}
		for _, id := range order[st] {
			t, ok := tasks[id]
			if !ok || t.Status != st {
				continue
			}
			col.Cards = append(col.Cards, buildCard(t, names, pending[id]))
		}
		col.Count = len(col.Cards)
		cols = append(cols, col)
	}
	return View{Columns: cols}
}

func buildCard(t model.Task, names map[int64]string, pending bool) Card {
	done, total := t.SubtaskProgress()
	c := Card{
		ID:            t.ID,
		Content:       t.Content,
		Priority:      t.EffectivePriority(),
		Assignee:      assigneeLabel(t, names),
		SubtasksDone:  done,
		SubtasksTotal: total,
		CommentCount:  t.CommentCount,
		Pending:       pending,
	}
	if t.DueDate != nil {
		c.DueDate = *t.DueDate
	}
	return c
}

func assigneeLabel(t model.Task, names map[int64]string) string {
	if name := strings.TrimSpace(t.AssigneeName); name != "" {
		return name
	}
	if t.AssigneeID != nil {
		if name := strings.TrimSpace(names[*t.AssigneeID]); name != "" {
			return name
		}
	}
	return unassignedLabel
}

// Find returns the column and card index of id.
func (v View) Find(id int64) (int, int, bool) {
	for ci := range v.Columns {
		for ii := range v.Columns[ci].Cards {
			if v.Columns[ci].Cards[ii].ID == id {
				return ci, ii, true
			}
		}
	}
	return 0, 0, false
}

// ColumnIndex returns the index of the column showing status, or -1.
func (v View) ColumnIndex(status model.Status) int {
	for i, c := range v.Columns {
		if c.Status == status {
			return i
		}
	}
	return -1
}

func (v View) Total() int {
	n := 0
	for _, c := range v.Columns {
		n += c.Count
	}
	return n
}
