package tui

import (
	"fmt"
	"strings"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type selection struct {
	Col  int
	Item int
	// TaskID keeps focus on the same card across repaints and moves.
	TaskID int64
}

// carry is the card being dragged: shown in the hovered column, dimmed at its source.
type carry struct {
	active bool
	taskID int64
	col    int
}

func clampSelection(v board.View, sel selection) selection {
	if len(v.Columns) == 0 {
		return selection{Item: -1}
	}
	if sel.TaskID != 0 {
		if ci, ii, ok := v.Find(sel.TaskID); ok {
			sel.Col, sel.Item = ci, ii
			return sel
		}
		sel.TaskID = 0
	}
	if sel.Col < 0 {
		sel.Col = 0
	}
	if sel.Col >= len(v.Columns) {
		sel.Col = len(v.Columns) - 1
	}
	n := len(v.Columns[sel.Col].Cards)
	if n == 0 {
		sel.Item = -1
		return sel
	}
	if sel.Item < 0 {
		sel.Item = 0
	}
	if sel.Item >= n {
		sel.Item = n - 1
	}
	sel.TaskID = v.Columns[sel.Col].Cards[sel.Item].ID
	return sel
}

func selectedCard(v board.View, sel selection) (board.Card, bool) {
	sel = clampSelection(v, sel)
	if sel.Item < 0 {
		return board.Card{}, false
	}
	return v.Columns[sel.Col].Cards[sel.Item], true
}

var (
	metaHighStyle = lipgloss.NewStyle().Foreground(colorPriorityHigh).Bold(true)
	metaLowStyle  = lipgloss.NewStyle().Foreground(colorPriorityLow)
	metaDueStyle  = lipgloss.NewStyle().Foreground(colorDue)
	metaStyle     = lipgloss.NewStyle().Foreground(colorCardMetaFg)
)

func renderColumns(v board.View, sel selection, c carry, width, height int) string {
	if width < 0 {
		width = 0
	}
	n := len(v.Columns)
	if n == 0 {
		return normalizePane("", width, height)
	}
	sel = clampSelection(v, sel)

	gap := 2
	avail := width - gap*(n-1)
	if avail < n {
		avail = n
	}
	colW := avail / n
	if colW < 12 {
		colW = 12
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerSelectedStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	headerDropStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccentFg).Background(colorAccent)

	cardStyle := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	cardSelectedStyle := cardStyle.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	ghostStyle := cardStyle.Width(colW-1).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(colorAccent)
	innerW := colW - 2
	if innerW < 1 {
		innerW = 1
	}

	var carried board.Card
	if c.active {
		if ci, ii, ok := v.Find(c.taskID); ok {
			carried = v.Columns[ci].Cards[ii]
		}
	}

	renderCard := func(card board.Card, selected, dimmed bool) string {
		titleStyle := lipgloss.NewStyle().Bold(true)
		switch {
		case selected:
			titleStyle = titleStyle.Foreground(colorSelectedFg).Background(colorSelectedBg)
		case dimmed:
			titleStyle = faintIfDark(lipgloss.NewStyle()).Foreground(colorMuted)
		}
		lines := []string{}
		for _, ln := range wrapWords(card.Content, innerW) {
			lines = append(lines, titleStyle.Render(ln))
		}
		lines = append(lines, wrapTokens(cardMeta(card), innerW)...)
		inner := normalizePane(strings.Join(lines, "\n"), innerW, 0)
		if selected {
			return cardSelectedStyle.Render(inner)
		}
		return cardStyle.Render(inner)
	}

	renderCol := func(ci int, col board.Column) string {
		dropTarget := c.active && ci == c.col
		hs := headerStyle
		switch {
		case dropTarget:
			hs = headerDropStyle
		case ci == sel.Col && !c.active:
			hs = headerSelectedStyle
		}
		head := fitWidth(fmt.Sprintf("%s (%d)", col.Label, col.Count), colW)
		lines := []string{hs.Width(colW).Render(head), ""}

		shown := 0
		for i, card := range col.Cards {
			if shown > 0 {
				lines = append(lines, styleMuted().Render(" "+strings.Repeat("─", max(colW-2, 0))+" "))
			}
			dimmed := c.active && card.ID == c.taskID
			selected := !c.active && ci == sel.Col && i == sel.Item
			lines = append(lines, strings.Split(renderCard(card, selected, dimmed), "\n")...)
			shown++
		}
		if dropTarget && carried.ID != 0 && col.Status != cardStatus(v, carried.ID) {
			if shown > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, strings.Split(ghostStyle.Render(normalizePane(strings.Join(wrapWords(carried.Content, innerW-1), "\n"), innerW-1, 0)), "\n")...)
			shown++
		}
		if shown == 0 {
			lines = append(lines, styleMuted().Render("(empty)"))
		}
		return normalizePane(strings.Join(lines, "\n"), colW, height)
	}

	out := ""
	sep := strings.Repeat(" ", gap)
	for i, col := range v.Columns {
		r := renderCol(i, col)
		if i == 0 {
			out = r
			continue
		}
		// JoinHorizontal has no inter-column spacing.
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, r)
	}
	return normalizePane(out, width, height)
}

func cardStatus(v board.View, id int64) model.Status {
	if ci, _, ok := v.Find(id); ok {
		return v.Columns[ci].Status
	}
	return ""
}

func cardMeta(card board.Card) []string {
	toks := []string{}
	switch card.Priority {
	case model.PriorityHigh:
		toks = append(toks, metaHighStyle.Render("high"))
	case model.PriorityLow:
		toks = append(toks, metaLowStyle.Render("low"))
	}
	toks = append(toks, metaStyle.Render("@"+card.Assignee))
	if card.DueDate != "" {
		toks = append(toks, metaDueStyle.Render("due "+card.DueDate))
	}
	if p := card.Progress(); p != "" {
		toks = append(toks, metaStyle.Render("☑ "+p))
	}
	if card.CommentCount > 0 {
		toks = append(toks, metaStyle.Render(fmt.Sprintf("✎ %d", card.CommentCount)))
	}
	if card.Pending {
		toks = append(toks, styleMuted().Render("saving…"))
	}
	return toks
}

// wrapWords wraps plain text at word boundaries, hard-cutting words wider than maxW.
func wrapWords(s string, maxW int) []string {
	if maxW <= 0 {
		return []string{""}
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{"(untitled)"}
	}
	lines := []string{}
	cur := ""
	for _, w := range words {
		for xansi.StringWidth(w) > maxW {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			lines = append(lines, xansi.Cut(w, 0, maxW))
			w = xansi.Cut(w, maxW, xansi.StringWidth(w))
		}
		switch {
		case cur == "":
			cur = w
		case xansi.StringWidth(cur)+1+xansi.StringWidth(w) <= maxW:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// wrapTokens packs styled tokens into lines of at most maxW columns.
func wrapTokens(tokens []string, maxW int) []string {
	if maxW <= 0 || len(tokens) == 0 {
		return nil
	}
	lines := []string{}
	cur := []string{}
	used := 0
	for _, tok := range tokens {
		w := xansi.StringWidth(tok)
		next := w
		if used > 0 {
			next++
		}
		if used+next <= maxW {
			cur = append(cur, tok)
			used += next
			continue
		}
		if len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
		}
		if w > maxW {
			lines = append(lines, xansi.Cut(tok, 0, maxW))
			cur, used = nil, 0
			continue
		}
		cur, used = []string{tok}, w
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}
