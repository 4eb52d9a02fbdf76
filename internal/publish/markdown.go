package publish

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/model"
)

// Snapshot is what an export renders: the painted board plus the cached tasks
// behind it. Comments are optional and keyed by task id.
type Snapshot struct {
	ProjectID   string
	View        board.View
	Tasks       []model.Task
	Comments    map[int64][]model.Comment
	GeneratedAt time.Time
}

func (s Snapshot) task(id int64) (model.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// RenderBoardMarkdown renders the board column by column, in board order.
func RenderBoardMarkdown(s Snapshot) string {
	var buf bytes.Buffer
	writeLn := func(str string) {
		buf.WriteString(str)
		buf.WriteString("\n")
	}

	title := "Board"
	if p := strings.TrimSpace(s.ProjectID); p != "" {
		title = "Project " + p
	}
	writeLn("# " + title)
	writeLn("")
	if !s.GeneratedAt.IsZero() {
		writeLn("_Exported " + s.GeneratedAt.UTC().Format(time.RFC3339) + "_")
		writeLn("")
	}

	for _, col := range s.View.Columns {
		writeLn(fmt.Sprintf("## %s (%d)", col.Label, col.Count))
		writeLn("")
		if len(col.Cards) == 0 {
			writeLn("_No tasks._")
			writeLn("")
			continue
		}
		for _, card := range col.Cards {
			writeCard(writeLn, card)
			t, ok := s.task(card.ID)
			if ok && len(t.Subtasks) > 0 {
				writeLn("")
				for _, st := range t.Subtasks {
					writeLn("- [" + checkMark(st.IsComplete) + "] " + oneLine(st.Content))
				}
			}
			if cs := s.Comments[card.ID]; len(cs) > 0 {
				writeLn("")
				writeLn("#### Comments")
				writeLn("")
				for _, c := range cs {
					writeLn(fmt.Sprintf("**%s** · %s", nonEmpty(c.Author, "unknown"), strings.TrimSpace(c.CreatedAt)))
					writeLn("")
					writeLn(strings.TrimSpace(c.Content))
					writeLn("")
				}
			}
			writeLn("")
		}
	}

	return strings.TrimRight(buf.String(), "\n") + "\n"
}

func writeCard(writeLn func(string), c board.Card) {
	writeLn("### #" + strconv.FormatInt(c.ID, 10) + " " + oneLine(c.Content))
	writeLn("")
	writeLn("- Priority: " + string(c.Priority))
	writeLn("- Assignee: " + c.Assignee)
	if c.DueDate != "" {
		writeLn("- Due: " + c.DueDate)
	}
	if p := c.Progress(); p != "" {
		writeLn("- Subtasks: " + p)
	}
	if c.CommentCount > 0 {
		writeLn("- Comments: " + strconv.Itoa(c.CommentCount))
	}
}

func checkMark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}
