package format

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WriteText renders the payload of a {"data": ...} envelope for people. The
// meta object is dropped. Values without a text form fall back to pretty JSON.
func WriteText(w io.Writer, v any) error {
	if env, ok := v.(map[string]any); ok {
		if data, ok := env["data"]; ok {
			v = data
		}
	}

	switch x := v.(type) {
	case board.View:
		return writeLine(w, boardTable(x))
	case []model.Task:
		return writeLine(w, taskTable(x))
	case model.Task:
		return writeLine(w, taskFields(x))
	case []model.Member:
		return writeLine(w, memberTable(x))
	case []model.Comment:
		return writeLine(w, commentLines(x))
	case model.Comment:
		return writeLine(w, commentLines([]model.Comment{x}))
	case model.Subtask:
		return writeLine(w, fmt.Sprintf("%s %s (subtask %d of task %d)", checkbox(x.IsComplete), x.Content, x.ID, x.TaskID))
	case model.Project:
		return writeLine(w, fmt.Sprintf("project %d: %s", x.ID, x.Name))
	case string:
		return writeLine(w, x)
	case map[string]any:
		return writeLine(w, keyValues(x))
	default:
		return WriteJSON(w, v, true)
	}
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, strings.TrimRight(s, "\n"))
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

// boardTable lays the columns side by side, one card per row.
func boardTable(v board.View) string {
	headers := make([]string, 0, len(v.Columns))
	depth := 0
	for _, c := range v.Columns {
		headers = append(headers, fmt.Sprintf("%s (%d)", c.Label, c.Count))
		if len(c.Cards) > depth {
			depth = len(c.Cards)
		}
	}
	t := newTable(headers...)
	for i := 0; i < depth; i++ {
		row := make([]string, len(v.Columns))
		for ci, c := range v.Columns {
			if i < len(c.Cards) {
				row[ci] = cardText(c.Cards[i])
			}
		}
		t.Row(row...)
	}
	return t.String()
}

func cardText(c board.Card) string {
	parts := []string{"#" + strconv.FormatInt(c.ID, 10) + " " + c.Content}
	meta := []string{string(c.Priority), c.Assignee}
	if c.DueDate != "" {
		meta = append(meta, "due "+c.DueDate)
	}
	if p := c.Progress(); p != "" {
		meta = append(meta, p)
	}
	if c.CommentCount > 0 {
		meta = append(meta, strconv.Itoa(c.CommentCount)+" comments")
	}
	if c.Pending {
		meta = append(meta, "saving")
	}
	parts = append(parts, strings.Join(meta, " · "))
	return strings.Join(parts, "\n")
}

func taskTable(tasks []model.Task) string {
	t := newTable("ID", "STATUS", "PRIORITY", "DUE", "ASSIGNEE", "SUBTASKS", "COMMENTS", "CONTENT")
	for _, task := range tasks {
		done, total := task.SubtaskProgress()
		t.Row(
			strconv.FormatInt(task.ID, 10),
			string(task.Status),
			string(task.EffectivePriority()),
			deref(task.DueDate),
			task.AssigneeName,
			fmt.Sprintf("%d/%d", done, total),
			strconv.Itoa(task.CommentCount),
			task.Content,
		)
	}
	return t.String()
}

func taskFields(task model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", task.ID, task.Content)
	fmt.Fprintf(&b, "status:   %s\n", model.StatusLabel(task.Status))
	fmt.Fprintf(&b, "priority: %s\n", task.EffectivePriority())
	if due := deref(task.DueDate); due != "" {
		fmt.Fprintf(&b, "due:      %s\n", due)
	}
	if task.AssigneeName != "" {
		fmt.Fprintf(&b, "assignee: %s\n", task.AssigneeName)
	}
	fmt.Fprintf(&b, "comments: %d\n", task.CommentCount)
	for _, st := range task.Subtasks {
		fmt.Fprintf(&b, "  %s %s (%d)\n", checkbox(st.IsComplete), st.Content, st.ID)
	}
	return b.String()
}

func memberTable(members []model.Member) string {
	t := newTable("USER", "NAME", "EMAIL", "ROLE")
	for _, m := range members {
		t.Row(strconv.FormatInt(m.UserID, 10), m.Name, m.Email, string(m.Role))
	}
	return t.String()
}

func commentLines(comments []model.Comment) string {
	if len(comments) == 0 {
		return "(no comments)"
	}
	var b strings.Builder
	for _, c := range comments {
		fmt.Fprintf(&b, "%s  %s\n  %s\n", c.CreatedAt, c.Author, c.Content)
	}
	return b.String()
}

func keyValues(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, m[k])
	}
	return b.String()
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
