package tui

import (
	"context"
	"strings"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField int

const (
	fieldContent formField = iota
	fieldPriority
	fieldDue
	fieldAssignee
	fieldCount
)

// taskForm is the create/edit modal. editID is 0 when creating.
type taskForm struct {
	editID int64

	content  textinput.Model
	due      textinput.Model
	priority model.Priority

	assignees   []board.AssigneeOption
	assigneeIdx int

	focus  formField
	saving bool
}

func newTaskForm(editID int64, in model.TaskInput, assignees []board.AssigneeOption) *taskForm {
	f := &taskForm{
		editID:    editID,
		priority:  in.Priority,
		assignees: assignees,
	}
	if f.priority == "" {
		f.priority = model.PriorityMedium
	}

	f.content = textinput.New()
	f.content.Placeholder = "What needs doing?"
	f.content.Prompt = ""
	f.content.CharLimit = 500
	f.content.SetValue(in.Content)

	f.due = textinput.New()
	f.due.Placeholder = "YYYY-MM-DD"
	f.due.Prompt = ""
	f.due.CharLimit = 10
	if in.DueDate != nil {
		f.due.SetValue(*in.DueDate)
	}

	for i, a := range assignees {
		if a.ID != nil && in.AssigneeID != nil && *a.ID == *in.AssigneeID {
			f.assigneeIdx = i
		}
	}
	f.setFocus(fieldContent)
	return f
}

func (f *taskForm) setFocus(field formField) {
	f.focus = field
	f.content.Blur()
	f.due.Blur()
	switch field {
	case fieldContent:
		f.content.Focus()
	case fieldDue:
		f.due.Focus()
	}
}

// input is the form's current TaskInput. Parsing of the due date is left to
// validation so a bad date is reported like any other invalid field.
func (f *taskForm) input() model.TaskInput {
	in := model.TaskInput{
		Content:  f.content.Value(),
		Priority: f.priority,
	}
	if d := strings.TrimSpace(f.due.Value()); d != "" {
		in.DueDate = &d
	}
	if f.assigneeIdx >= 0 && f.assigneeIdx < len(f.assignees) {
		if id := f.assignees[f.assigneeIdx].ID; id != nil {
			v := *id
			in.AssigneeID = &v
		}
	}
	return in
}

func (f *taskForm) assigneeLabel() string {
	if f.assigneeIdx >= 0 && f.assigneeIdx < len(f.assignees) {
		return f.assignees[f.assigneeIdx].Label
	}
	return "Unassigned"
}

func (f *taskForm) cycle(delta int) {
	switch f.focus {
	case fieldPriority:
		if delta > 0 {
			f.priority = model.NextPriority(f.priority)
			return
		}
		// Backwards is two steps forward in a ring of three.
		f.priority = model.NextPriority(model.NextPriority(f.priority))
	case fieldAssignee:
		n := len(f.assignees)
		if n == 0 {
			return
		}
		f.assigneeIdx = ((f.assigneeIdx+delta)%n + n) % n
	}
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.modal = modalNone
		return m, nil
	}
	k := m.keys
	switch {
	case key.Matches(msg, k.Cancel):
		m.form = nil
		m.modal = modalNone
		return m, nil

	case key.Matches(msg, k.NextField):
		f.setFocus((f.focus + 1) % fieldCount)
		return m, nil

	case key.Matches(msg, k.PrevField):
		f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		return m, nil

	case key.Matches(msg, k.Submit):
		if f.saving {
			return m, nil
		}
		f.saving = true
		in := f.input()
		ctrl := m.ctrl
		if f.editID != 0 {
			id := f.editID
			return m, m.start("update", func(ctx context.Context) error {
				_, err := ctrl.UpdateTask(ctx, id, in)
				return err
			})
		}
		return m, m.start("create", func(ctx context.Context) error {
			_, err := ctrl.CreateTask(ctx, in)
			return err
		})
	}

	switch f.focus {
	case fieldPriority, fieldAssignee:
		switch {
		case key.Matches(msg, k.Left):
			f.cycle(-1)
		case key.Matches(msg, k.Cycle):
			f.cycle(1)
		}
		return m, nil
	case fieldDue:
		var cmd tea.Cmd
		f.due, cmd = f.due.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		f.content, cmd = f.content.Update(msg)
		return m, cmd
	}
}

func (f *taskForm) render(width int) string {
	bodyW := modalBodyWidth(width)
	title := "New task"
	if f.editID != 0 {
		title = "Edit task"
	}

	choice := func(label, value string, focused bool) string {
		ls := styleMuted()
		vs := lipgloss.NewStyle()
		if focused {
			ls = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
			vs = vs.Foreground(colorSelectedFg).Background(colorSelectedBg)
			value = "‹ " + value + " ›"
		}
		return ls.Render(label) + "\n" + vs.Render(" "+value+" ")
	}

	rows := []string{
		renderField(bodyW, "Content", f.content.View(), f.focus == fieldContent),
		"",
		choice("Priority", string(f.priority), f.focus == fieldPriority),
		"",
		renderField(bodyW, "Due date", f.due.View(), f.focus == fieldDue),
		"",
		choice("Assignee", f.assigneeLabel(), f.focus == fieldAssignee),
		"",
	}
	help := "tab: next field   ←/→: change   enter: save   esc: cancel"
	if f.saving {
		help = "saving…"
	}
	rows = append(rows, styleMuted().Width(bodyW).Render(help))
	return renderModalBox(width, title, strings.Join(rows, "\n"))
}
