package tui

import (
	"context"

	"taskboard-cli/internal/board"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages the controller pushes into the program.
type (
	paintMsg   struct{ view board.View }
	noticeMsg  struct{ notice board.Notice }
	confirmMsg struct {
		prompt string
		reply  chan bool
	}
	bridgeClosedMsg struct{}
)

// bridge adapts the controller's Painter, Notifier and Confirmer to the
// bubbletea event loop. Controller calls happen on command goroutines; every
// callback becomes a message delivered through wait.
type bridge struct {
	msgs chan tea.Msg
	done chan struct{}
}

func newBridge() *bridge {
	return &bridge{
		msgs: make(chan tea.Msg, 64),
		done: make(chan struct{}),
	}
}

func (b *bridge) send(msg tea.Msg) {
	select {
	case b.msgs <- msg:
	case <-b.done:
	}
}

func (b *bridge) Paint(v board.View) { b.send(paintMsg{view: v}) }

func (b *bridge) Notify(n board.Notice) { b.send(noticeMsg{notice: n}) }

// Confirm blocks the calling command until the user answers the modal.
func (b *bridge) Confirm(ctx context.Context, prompt string) bool {
	reply := make(chan bool, 1)
	select {
	case b.msgs <- confirmMsg{prompt: prompt, reply: reply}:
	case <-ctx.Done():
		return false
	case <-b.done:
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	case <-b.done:
		return false
	}
}

// wait delivers the next bridge message. The model re-arms it after each one.
func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.msgs:
			return msg
		case <-b.done:
			return bridgeClosedMsg{}
		}
	}
}

func (b *bridge) close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}
