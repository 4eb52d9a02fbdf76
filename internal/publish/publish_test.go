package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskboard-cli/internal/board"
	"taskboard-cli/internal/model"
)

func sampleSnapshot() Snapshot {
	due := "2030-01-15"
	owner := int64(1)
	tasks := []model.Task{
		{
			ID: 1, Content: "Write the\nlaunch checklist", Status: model.StatusTodo, Priority: model.PriorityHigh,
			DueDate: &due, AssigneeID: &owner, CommentCount: 1,
			Subtasks: []model.Subtask{{ID: 5, Content: "Collect feedback", IsComplete: true}, {ID: 6, Content: "Draft announcement"}},
		},
		{ID: 3, Content: "Set up CI", Status: model.StatusDone, Priority: model.PriorityLow},
	}
	byID := map[int64]model.Task{}
	for _, t := range tasks {
		byID[t.ID] = t
	}
	order := map[model.Status][]int64{model.StatusTodo: {1}, model.StatusDone: {3}}
	members := []model.Member{{UserID: 1, Name: "Ada", Role: model.RoleOwner}}
	return Snapshot{
		ProjectID: "7",
		View:      board.BuildView(byID, order, members, nil),
		Tasks:     tasks,
		Comments: map[int64][]model.Comment{
			1: {{ID: 9, Author: "Ada", Content: "Looks **good**", CreatedAt: "2030-01-01T10:00:00Z"}},
		},
		GeneratedAt: time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderBoardMarkdown_ColumnsCardsAndChecklist(t *testing.T) {
	t.Parallel()

	md := RenderBoardMarkdown(sampleSnapshot())
	for _, want := range []string{
		"# Project 7",
		"_Exported 2030-01-02T00:00:00Z_",
		"## To Do (1)",
		"## In Progress (0)\n\n_No tasks._",
		"## Done (1)",
		"### #1 Write the launch checklist",
		"- Assignee: Ada",
		"- Due: 2030-01-15",
		"- Subtasks: 1/2",
		"- [x] Collect feedback",
		"- [ ] Draft announcement",
		"#### Comments",
		"**Ada** · 2030-01-01T10:00:00Z",
		"### #3 Set up CI",
		"- Assignee: Unassigned",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
	if strings.Index(md, "## To Do") > strings.Index(md, "## Done") {
		t.Fatalf("columns out of order:\n%s", md)
	}
}

func TestRenderHTML_DropsRawHTML(t *testing.T) {
	t.Parallel()

	page, err := RenderHTML("Board", "# Hi\n\n<script>alert(1)</script>\n\n- [x] done")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if strings.Contains(page, "<script>") {
		t.Fatalf("raw html should not pass through:\n%s", page)
	}
	if !strings.Contains(page, "<h1") || !strings.Contains(page, `type="checkbox"`) {
		t.Fatalf("expected heading and task list checkbox:\n%s", page)
	}
	if !strings.Contains(page, "<title>Board</title>") {
		t.Fatalf("expected title:\n%s", page)
	}
}

func TestWriteBoard_RespectsOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := sampleSnapshot()

	res, err := WriteBoard(s, dir, WriteOptions{HTML: true})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	if len(res.Written) != 2 {
		t.Fatalf("expected md and html, got %v", res.Written)
	}
	b, err := os.ReadFile(filepath.Join(dir, "board.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "## Done (1)") {
		t.Fatalf("unexpected board.md:\n%s", b)
	}

	if _, err := WriteBoard(s, dir, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected exists error, got %v", err)
	}
	if _, err := WriteBoard(s, dir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := WriteBoard(s, "  ", WriteOptions{}); err == nil {
		t.Fatalf("expected missing dir error")
	}
}
