package tui

import (
	"context"
	"errors"
	"strings"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/logging"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/store"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

type screen int

const (
	screenBoard screen = iota
	screenDetail
	screenMembers
	screenHelp
)

type modalKind int

const (
	modalNone modalKind = iota
	modalTaskForm
	modalConfirm
	modalAddSubtask
	modalAddComment
)

// opDoneMsg reports a controller call that ran on a command goroutine.
type opDoneMsg struct {
	op  string
	err error
}

type commentsMsg struct {
	taskID   int64
	comments []model.Comment
	err      error
}

type appModel struct {
	ctx  context.Context
	ctrl *board.Controller
	br   *bridge
	log  logrus.FieldLogger
	keys keyMap

	width  int
	height int

	screen screen
	modal  modalKind

	view     board.View
	sel      selection
	carrying carry

	form    *taskForm
	confirm *confirmState
	detail  detailState
	members membersState

	// inFlight counts controller calls that have not returned yet.
	inFlight int

	minibufferText  string
	minibufferLevel board.Level
}

func newAppModel(ctx context.Context, ctrl *board.Controller, br *bridge, saved store.UIState, log logrus.FieldLogger) appModel {
	if log == nil {
		log = logging.Discard()
	}
	m := appModel{
		ctx:     ctx,
		ctrl:    ctrl,
		br:      br,
		log:     log,
		keys:    defaultKeyMap(),
		view:    ctrl.View(),
		detail:  newDetailState(),
		members: newMembersState(),
	}
	for i, s := range model.Statuses() {
		if s == saved.SelectedStatus {
			m.sel.Col = i
		}
	}
	m.sel.TaskID = saved.SelectedTaskID
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.br.wait(), m.run("load", m.ctrl.LoadBoard))
}

// run executes a controller call off the event loop.
func (m appModel) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *appModel) start(op string, fn func(context.Context) error) tea.Cmd {
	m.inFlight++
	return m.run(op, fn)
}

func (m *appModel) showMinibuffer(level board.Level, text string) {
	m.minibufferLevel = level
	m.minibufferText = text
}

// uiState is what gets persisted on quit.
func (m appModel) uiState() store.UIState {
	st := store.UIState{ProjectID: m.ctrl.ProjectID()}
	sel := clampSelection(m.view, m.sel)
	if sel.Col >= 0 && sel.Col < len(m.view.Columns) {
		st.SelectedStatus = m.view.Columns[sel.Col].Status
	}
	st.SelectedTaskID = sel.TaskID
	return st
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.members.resize(m.width, m.bodyHeight())
		return m, nil

	case paintMsg:
		m.view = msg.view
		m.sel = clampSelection(m.view, m.sel)
		if m.carrying.active {
			if _, _, ok := m.view.Find(m.carrying.taskID); !ok {
				_ = m.ctrl.Drag().CancelDrag()
				m.carrying = carry{}
			}
		}
		if m.screen == screenDetail {
			if _, ok := m.ctrl.Detail(); !ok {
				m.closeDetail()
			} else {
				m.detail.clampCursor(m.ctrl)
			}
		}
		m.members.setItems(m.ctrl.Members())
		return m, m.br.wait()

	case noticeMsg:
		m.showMinibuffer(msg.notice.Level, msg.notice.String())
		return m, m.br.wait()

	case confirmMsg:
		// Only one question at a time; a second one is declined.
		if m.confirm != nil {
			msg.reply <- false
			return m, m.br.wait()
		}
		m.confirm = &confirmState{prompt: msg.prompt, reply: msg.reply, focus: confirmFocusCancel}
		m.modal = modalConfirm
		return m, m.br.wait()

	case bridgeClosedMsg:
		return m, nil

	case opDoneMsg:
		return m.opDone(msg)

	case commentsMsg:
		if msg.taskID == m.detail.taskID {
			m.detail.loading = false
			if msg.err == nil {
				m.detail.comments = msg.comments
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m appModel) opDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if m.inFlight > 0 {
		m.inFlight--
	}
	err := msg.err
	if err != nil {
		m.log.WithError(err).WithField("op", msg.op).Debug("operation failed")
	}
	if errors.Is(err, context.Canceled) {
		return m, nil
	}
	if errors.Is(err, board.ErrDragState) {
		m.showMinibuffer(board.LevelWarning, "Drag already in progress")
	}

	switch msg.op {
	case "create", "update":
		if m.form != nil {
			m.form.saving = false
			if err == nil {
				m.form = nil
				m.modal = modalNone
			}
		}
	case "subtask":
		if err == nil && m.modal == modalAddSubtask {
			m.modal = modalNone
			m.detail.input.Reset()
		}
	case "comment":
		if err == nil {
			if m.modal == modalAddComment {
				m.modal = modalNone
				m.detail.textarea.Reset()
			}
			return m, m.loadComments(m.detail.taskID)
		}
	case "member":
		if err == nil {
			m.members.email.Reset()
		}
	}
	return m, nil
}

func (m appModel) loadComments(taskID int64) tea.Cmd {
	if taskID == 0 {
		return nil
	}
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		cs, err := ctrl.Comments(ctx, taskID)
		return commentsMsg{taskID: taskID, comments: cs, err: err}
	}
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	// Notices stay until the next key.
	m.minibufferText = ""

	switch m.modal {
	case modalConfirm:
		return m.updateConfirm(msg)
	case modalTaskForm:
		return m.updateForm(msg)
	case modalAddSubtask, modalAddComment:
		return m.updateDetailInput(msg)
	}

	switch m.screen {
	case screenDetail:
		return m.updateDetail(msg)
	case screenMembers:
		return m.updateMembers(msg)
	case screenHelp:
		if key.Matches(msg, m.keys.Cancel, m.keys.Help, m.keys.Quit) {
			m.screen = screenBoard
		}
		return m, nil
	}
	return m.updateBoard(msg)
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		m.confirm.answer(false)
		m.confirm = nil
	}
	m.br.close()
	return m, tea.Quit
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	if c == nil {
		m.modal = modalNone
		return m, nil
	}
	answer := func(ok bool) (tea.Model, tea.Cmd) {
		c.answer(ok)
		m.confirm = nil
		m.modal = modalNone
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Yes):
		return answer(true)
	case key.Matches(msg, m.keys.No), key.Matches(msg, m.keys.Cancel):
		return answer(false)
	case key.Matches(msg, m.keys.Enter):
		return answer(c.focus == confirmFocusConfirm)
	case msg.String() == "tab", msg.String() == "shift+tab", key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		if c.focus == confirmFocusConfirm {
			c.focus = confirmFocusCancel
		} else {
			c.focus = confirmFocusConfirm
		}
	}
	return m, nil
}

func (m appModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	drag := m.ctrl.Drag()

	if m.carrying.active {
		switch {
		case key.Matches(msg, k.Left):
			if m.carrying.col > 0 {
				m.carrying.col--
			}
		case key.Matches(msg, k.Right):
			if m.carrying.col < len(m.view.Columns)-1 {
				m.carrying.col++
			}
		case key.Matches(msg, k.Enter), key.Matches(msg, k.PickUp):
			target := m.view.Columns[m.carrying.col].Status
			id := m.carrying.taskID
			m.carrying = carry{}
			m.sel.TaskID = id
			return m, m.start("move", func(ctx context.Context) error { return drag.Drop(ctx, target) })
		case key.Matches(msg, k.Cancel):
			_ = drag.CancelDrag()
			m.carrying = carry{}
		case key.Matches(msg, k.Quit):
			_ = drag.CancelDrag()
			m.carrying = carry{}
			return m.quit()
		}
		return m, nil
	}

	m.sel = clampSelection(m.view, m.sel)
	card, hasCard := selectedCard(m.view, m.sel)

	switch {
	case key.Matches(msg, k.Quit):
		return m.quit()

	case key.Matches(msg, k.Left):
		if m.sel.Col > 0 {
			m.sel.Col--
			m.sel.TaskID = 0
		}
	case key.Matches(msg, k.Right):
		if m.sel.Col < len(m.view.Columns)-1 {
			m.sel.Col++
			m.sel.TaskID = 0
		}
	case key.Matches(msg, k.Up):
		if m.sel.Item > 0 {
			m.sel.Item--
			m.sel.TaskID = 0
		}
	case key.Matches(msg, k.Down):
		m.sel.Item++
		m.sel.TaskID = 0

	case key.Matches(msg, k.PickUp):
		if !hasCard {
			return m, nil
		}
		if err := drag.BeginDrag(card.ID); err != nil {
			if errors.Is(err, board.ErrDragState) {
				m.showMinibuffer(board.LevelWarning, "A move is still being saved")
			} else {
				m.showMinibuffer(board.LevelWarning, err.Error())
			}
			return m, nil
		}
		m.carrying = carry{active: true, taskID: card.ID, col: m.sel.Col}

	case key.Matches(msg, k.Enter):
		if hasCard {
			return m.openDetail(card.ID)
		}

	case key.Matches(msg, k.New):
		m.form = newTaskForm(0, model.TaskInput{}, m.ctrl.AssigneeOptions())
		m.modal = modalTaskForm

	case key.Matches(msg, k.Edit):
		if hasCard {
			return m.editTask(card.ID)
		}

	case key.Matches(msg, k.Delete):
		if hasCard {
			id := card.ID
			ctrl := m.ctrl
			return m, m.start("delete", func(ctx context.Context) error {
				_, err := ctrl.DeleteTask(ctx, id)
				return err
			})
		}

	case key.Matches(msg, k.Member):
		m.screen = screenMembers
		m.members.setItems(m.ctrl.Members())
		m.members.resize(m.width, m.bodyHeight())
		return m, m.members.email.Focus()

	case key.Matches(msg, k.Reload):
		return m, m.start("load", m.ctrl.LoadBoard)

	case key.Matches(msg, k.Help):
		m.screen = screenHelp
	}
	return m, nil
}

func (m appModel) editTask(id int64) (tea.Model, tea.Cmd) {
	t, ok := m.ctrl.Task(id)
	if !ok {
		m.showMinibuffer(board.LevelWarning, "Task no longer exists")
		return m, nil
	}
	m.form = newTaskForm(id, model.InputFromTask(t), m.ctrl.AssigneeOptions())
	m.modal = modalTaskForm
	return m, nil
}

func (m appModel) bodyHeight() int {
	// header, gap, footer
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (m appModel) View() string {
	w := m.width
	if w <= 0 {
		w = 80
	}
	h := m.height
	if h <= 0 {
		h = 24
	}

	var body string
	switch m.screen {
	case screenDetail:
		body = m.renderDetail(w, m.bodyHeight())
	case screenMembers:
		body = m.renderMembers(w, m.bodyHeight())
	case screenHelp:
		body = renderHelp(w, m.bodyHeight())
	default:
		if !m.ctrl.Loaded() && m.view.Total() == 0 {
			body = normalizePane(styleMuted().Render("Loading board…"), w, m.bodyHeight())
		} else {
			body = renderColumns(m.view, m.sel, m.carrying, w, m.bodyHeight())
		}
	}

	switch m.modal {
	case modalTaskForm:
		if m.form != nil {
			body = overlayCenter(w, m.bodyHeight(), m.form.render(w))
		}
	case modalConfirm:
		if m.confirm != nil {
			body = overlayCenter(w, m.bodyHeight(), renderConfirmModal(w, "Confirm", m.confirm.prompt, "Yes", "No", m.confirm.focus))
		}
	case modalAddSubtask:
		body = overlayCenter(w, m.bodyHeight(), renderModalBox(w, "Add subtask", renderInputLine(modalBodyWidth(w), m.detail.input.View())))
	case modalAddComment:
		body = overlayCenter(w, m.bodyHeight(), renderModalBox(w, "Add comment", m.detail.textarea.View()+"\n\n"+styleMuted().Render("ctrl+s: save   esc: cancel")))
	}

	return strings.Join([]string{m.renderHeader(w), "", body, m.renderFooter(w)}, "\n")
}

func (m appModel) renderHeader(width int) string {
	title := "taskboard"
	if pid := m.ctrl.ProjectID(); pid != "" {
		title += " · project " + pid
	}
	right := ""
	if m.inFlight > 0 {
		right = "saving…"
	}
	if m.carrying.active {
		if t, ok := m.ctrl.Task(m.carrying.taskID); ok {
			right = "moving: " + t.Content
		}
	}
	left := lipgloss.NewStyle().Bold(true).Render(title)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return fitWidth(left+strings.Repeat(" ", gap)+styleMuted().Render(right), width)
}

func (m appModel) renderFooter(width int) string {
	if m.minibufferText != "" {
		st := lipgloss.NewStyle()
		switch m.minibufferLevel {
		case board.LevelError:
			st = st.Foreground(colorNoticeError).Bold(true)
		case board.LevelWarning:
			st = st.Foreground(colorNoticeWarning)
		}
		return fitWidth(st.Render(m.minibufferText), width)
	}
	k := m.keys
	var help string
	switch {
	case m.carrying.active:
		help = helpLine(k.Left, k.Right, k.Enter, k.Cancel)
	case m.screen == screenDetail:
		help = helpLine(k.Up, k.Down, k.Toggle, k.AddSubtask, k.AddComment, k.Edit, k.Delete, k.Cancel)
	case m.screen == screenMembers:
		help = "enter: invite   esc: back"
	case m.screen == screenHelp:
		help = "esc: back"
	default:
		help = helpLine(k.Left, k.Down, k.PickUp, k.Enter, k.New, k.Edit, k.Delete, k.Member, k.Reload, k.Help, k.Quit)
	}
	return fitWidth(styleMuted().Render(help), width)
}
