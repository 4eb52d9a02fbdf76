package format

import (
	"bytes"
	"strings"
	"testing"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/model"
)

func TestWrite_JSONEnvelopeIsStrictAndSorted(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"meta": map[string]any{"count": 1}, "data": []int{1}}
	if err := Write(&buf, v, "json", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"data\":[1],\"meta\":{\"count\":1}}\n" {
		t.Fatalf("unexpected json: %q", got)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, nil, "edn", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestWriteText_Board(t *testing.T) {
	tasks := map[int64]model.Task{
		1: {ID: 1, Content: "write docs", Status: model.StatusTodo, CommentCount: 2},
		2: {ID: 2, Content: "ship", Status: model.StatusDone, AssigneeName: "Ada"},
	}
	order := map[model.Status][]int64{model.StatusTodo: {1}, model.StatusDone: {2}}
	v := board.BuildView(tasks, order, nil, nil)

	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": v}, "text", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"To Do (1)", "In Progress (0)", "Done (1)", "#1 write docs", "2 comments", "Ada", "Unassigned"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteText_TasksAndFallback(t *testing.T) {
	var buf bytes.Buffer
	due := "2030-01-01"
	tasks := []model.Task{{ID: 7, Content: "a", Status: model.StatusInProgress, DueDate: &due, Subtasks: []model.Subtask{{IsComplete: true}}}}
	if err := WriteText(&buf, map[string]any{"data": tasks}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "inprogress") || !strings.Contains(out, "1/1") || !strings.Contains(out, due) {
		t.Fatalf("unexpected task table:\n%s", out)
	}

	buf.Reset()
	if err := WriteText(&buf, []int{1, 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "1,") {
		t.Fatalf("expected JSON fallback, got %q", buf.String())
	}
}
