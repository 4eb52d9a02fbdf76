package tui

import (
	"context"
	"fmt"
	"strings"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type detailState struct {
	taskID int64
	// cursor indexes the task's subtasks.
	cursor   int
	comments []model.Comment
	loading  bool

	input    textinput.Model
	textarea textarea.Model
}

func newDetailState() detailState {
	in := textinput.New()
	in.Placeholder = "Subtask"
	in.Prompt = ""
	in.CharLimit = 500

	ta := textarea.New()
	ta.Placeholder = "Write a comment (markdown)"
	ta.ShowLineNumbers = false
	ta.SetHeight(6)
	ta.CharLimit = 0
	return detailState{input: in, textarea: ta}
}

func (d *detailState) clampCursor(ctrl *board.Controller) {
	t, ok := ctrl.Task(d.taskID)
	if !ok || len(t.Subtasks) == 0 {
		d.cursor = 0
		return
	}
	if d.cursor >= len(t.Subtasks) {
		d.cursor = len(t.Subtasks) - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
}

func (m appModel) openDetail(id int64) (tea.Model, tea.Cmd) {
	if err := m.ctrl.OpenDetail(id); err != nil {
		m.showMinibuffer(board.LevelWarning, "Task no longer exists")
		return m, nil
	}
	m.screen = screenDetail
	m.detail.taskID = id
	m.detail.cursor = 0
	m.detail.comments = nil
	m.detail.loading = true
	return m, m.loadComments(id)
}

func (m *appModel) closeDetail() {
	m.ctrl.CloseDetail()
	m.screen = screenBoard
	m.detail.taskID = 0
	m.detail.comments = nil
	m.detail.loading = false
	if m.modal == modalAddSubtask || m.modal == modalAddComment {
		m.modal = modalNone
	}
}

func (m appModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	t, ok := m.ctrl.Detail()
	if !ok {
		m.closeDetail()
		return m, nil
	}
	switch {
	case key.Matches(msg, k.Cancel), key.Matches(msg, k.Quit):
		m.closeDetail()
	case key.Matches(msg, k.Up):
		if m.detail.cursor > 0 {
			m.detail.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.detail.cursor < len(t.Subtasks)-1 {
			m.detail.cursor++
		}
	case key.Matches(msg, k.Toggle):
		if m.detail.cursor < len(t.Subtasks) {
			taskID, subID := t.ID, t.Subtasks[m.detail.cursor].ID
			ctrl := m.ctrl
			return m, m.start("toggle", func(ctx context.Context) error {
				_, err := ctrl.ToggleSubtask(ctx, taskID, subID)
				return err
			})
		}
	case key.Matches(msg, k.AddSubtask):
		m.modal = modalAddSubtask
		m.detail.input.Reset()
		return m, m.detail.input.Focus()
	case key.Matches(msg, k.AddComment):
		m.modal = modalAddComment
		m.detail.textarea.Reset()
		m.detail.textarea.SetWidth(modalBodyWidth(m.width))
		return m, m.detail.textarea.Focus()
	case key.Matches(msg, k.Edit):
		return m.editTask(t.ID)
	case key.Matches(msg, k.Delete):
		id := t.ID
		ctrl := m.ctrl
		return m, m.start("delete", func(ctx context.Context) error {
			_, err := ctrl.DeleteTask(ctx, id)
			return err
		})
	case key.Matches(msg, k.Reload):
		return m, tea.Batch(m.start("load", m.ctrl.LoadBoard), m.loadComments(t.ID))
	}
	return m, nil
}

// updateDetailInput drives the add-subtask and add-comment modals.
func (m appModel) updateDetailInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	taskID := m.detail.taskID
	ctrl := m.ctrl
	if key.Matches(msg, m.keys.Cancel) {
		m.modal = modalNone
		m.detail.input.Blur()
		m.detail.textarea.Blur()
		return m, nil
	}

	if m.modal == modalAddSubtask {
		if msg.Type == tea.KeyEnter {
			content := m.detail.input.Value()
			return m, m.start("subtask", func(ctx context.Context) error {
				_, err := ctrl.AddSubtask(ctx, taskID, content)
				return err
			})
		}
		var cmd tea.Cmd
		m.detail.input, cmd = m.detail.input.Update(msg)
		return m, cmd
	}

	// Enter is a newline in comments; ctrl+s saves.
	if msg.String() == "ctrl+s" {
		content := m.detail.textarea.Value()
		return m, m.start("comment", func(ctx context.Context) error {
			_, err := ctrl.AddComment(ctx, taskID, content)
			return err
		})
	}
	var cmd tea.Cmd
	m.detail.textarea, cmd = m.detail.textarea.Update(msg)
	return m, cmd
}

func (m appModel) renderDetail(width, height int) string {
	t, ok := m.ctrl.Detail()
	if !ok {
		return normalizePane(styleMuted().Render("(task closed)"), width, height)
	}
	innerW := width - 4
	if innerW > maxDetailW {
		innerW = maxDetailW
	}
	if innerW < 20 {
		innerW = 20
	}

	label := styleMuted().Bold(true)
	title := lipgloss.NewStyle().Bold(true).Width(innerW).Render(t.Content)

	due := "-"
	if t.DueDate != nil && *t.DueDate != "" {
		due = *t.DueDate
	}
	who := "Unassigned"
	if ci, ii, ok := m.view.Find(t.ID); ok {
		who = m.view.Columns[ci].Cards[ii].Assignee
	}

	lines := []string{
		title,
		"",
		label.Render("Status:   ") + model.StatusLabel(t.Status),
		label.Render("Priority: ") + string(t.EffectivePriority()),
		label.Render("Due:      ") + due,
		label.Render("Assignee: ") + who,
		"",
	}

	done, total := t.SubtaskProgress()
	lines = append(lines, label.Render(fmt.Sprintf("Subtasks (%d/%d)", done, total)))
	if total == 0 {
		lines = append(lines, styleMuted().Render("(none)"))
	}
	for i, st := range t.Subtasks {
		box := "[ ]"
		if st.IsComplete {
			box = "[x]"
		}
		row := fitWidth(box+" "+st.Content, innerW)
		if i == m.detail.cursor {
			row = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true).Render(row)
		}
		lines = append(lines, row)
	}

	lines = append(lines, "", label.Render(fmt.Sprintf("Comments (%d)", t.CommentCount)))
	switch {
	case m.detail.loading:
		lines = append(lines, styleMuted().Render("Loading…"))
	case len(m.detail.comments) == 0:
		lines = append(lines, styleMuted().Render("(none)"))
	}
	for _, c := range m.detail.comments {
		head := lipgloss.NewStyle().Bold(true).Render(c.Author)
		if c.CreatedAt != "" {
			head += styleMuted().Render("  " + c.CreatedAt)
		}
		lines = append(lines, head, renderMarkdown(c.Content, innerW), "")
	}

	body := strings.Join(lines, "\n")
	return normalizePane(lipgloss.NewStyle().PaddingLeft(2).Render(body), width, height)
}

const maxDetailW = 96
