package tui

import (
	"context"
	"strings"

	"taskboard-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type memberItem struct {
	member model.Member
}

func (i memberItem) FilterValue() string { return i.member.Name + " " + i.member.Email }
func (i memberItem) Title() string {
	name := i.member.Name
	if name == "" {
		name = i.member.Email
	}
	if i.member.Role == model.RoleOwner {
		return name + " (owner)"
	}
	return name
}
func (i memberItem) Description() string { return i.member.Email }

type membersState struct {
	list  list.Model
	email textinput.Model
}

func newMembersState() membersState {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(colorAccent).BorderForeground(colorAccent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(colorMuted).BorderForeground(colorAccent)

	l := list.New([]list.Item{}, d, 0, 0)
	l.Title = "Members"
	l.SetFilteringEnabled(false)
	l.SetShowFilter(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	// The list only needs up/down; other keys go to the email input.
	l.KeyMap = list.KeyMap{
		CursorUp:   key.NewBinding(key.WithKeys("up")),
		CursorDown: key.NewBinding(key.WithKeys("down")),
	}

	in := textinput.New()
	in.Placeholder = "email to invite"
	in.Prompt = ""
	in.CharLimit = 254
	return membersState{list: l, email: in}
}

func (s *membersState) setItems(members []model.Member) {
	items := make([]list.Item, 0, len(members))
	for _, mem := range members {
		items = append(items, memberItem{member: mem})
	}
	s.list.SetItems(items)
}

func (s *membersState) resize(width, height int) {
	w := modalBodyWidth(width)
	h := height - 5
	if h < 3 {
		h = 3
	}
	s.list.SetSize(w, h)
	s.email.Width = w - 2
}

func (m appModel) updateMembers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.members.email.Blur()
		m.screen = screenBoard
		return m, nil
	case msg.Type == tea.KeyEnter:
		email := strings.TrimSpace(m.members.email.Value())
		ctrl := m.ctrl
		return m, m.start("member", func(ctx context.Context) error {
			_, err := ctrl.AddMember(ctx, email)
			return err
		})
	case msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		var cmd tea.Cmd
		m.members.list, cmd = m.members.list.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.members.email, cmd = m.members.email.Update(msg)
	return m, cmd
}

func (m appModel) renderMembers(width, height int) string {
	bodyW := modalBodyWidth(width)
	lines := []string{
		m.members.list.View(),
		"",
		renderField(bodyW, "Invite by email", m.members.email.View(), true),
	}
	return normalizePane(strings.Join(lines, "\n"), width, height)
}
