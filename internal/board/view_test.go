package board

import (
	"testing"

	"taskboard-cli/internal/model"
)

func TestBuildView_ColumnsAndCards(t *testing.T) {
	ada := int64(1)
	ghost := int64(9)
	due := "2030-01-02"
	tasks := map[int64]model.Task{
		1: {ID: 1, Content: "a", Status: model.StatusTodo, AssigneeID: &ada},
		2: {ID: 2, Content: "b", Status: model.StatusTodo, AssigneeName: "Named", Priority: model.PriorityHigh, DueDate: &due},
		3: {ID: 3, Content: "c", Status: model.StatusDone, AssigneeID: &ghost, CommentCount: 4,
			Subtasks: []model.Subtask{{ID: 30, IsComplete: true}, {ID: 31}}},
		4: {ID: 4, Content: "d", Status: model.Status("archived")},
	}
	order := map[model.Status][]int64{
		model.StatusTodo:         {2, 1, 77},
		model.StatusDone:         {3},
		model.Status("archived"): {4},
	}
	members := []model.Member{{UserID: 1, Name: "Ada"}}

	v := BuildView(tasks, order, members, map[int64]bool{3: true})

	if len(v.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(v.Columns))
	}
	wantLabels := []string{"To Do", "In Progress", "Done"}
	for i, c := range v.Columns {
		if c.Label != wantLabels[i] {
			t.Fatalf("column %d: expected %q, got %q", i, wantLabels[i], c.Label)
		}
		if c.Count != len(c.Cards) {
			t.Fatalf("column %d: count %d != %d cards", i, c.Count, len(c.Cards))
		}
	}
	if !sameIDs(columnIDs(v, model.StatusTodo), []int64{2, 1}) {
		t.Fatalf("expected server order [2 1], got %v", columnIDs(v, model.StatusTodo))
	}
	if v.Columns[1].Cards == nil || len(v.Columns[1].Cards) != 0 {
		t.Fatalf("expected empty, non-nil in-progress column")
	}
	if v.Total() != 3 {
		t.Fatalf("unknown statuses must not be shown, total=%d", v.Total())
	}

	b := v.Columns[0].Cards[0]
	if b.Assignee != "Named" || b.Priority != model.PriorityHigh || b.DueDate != due || b.Progress() != "" {
		t.Fatalf("unexpected card b: %+v", b)
	}
	a := v.Columns[0].Cards[1]
	if a.Assignee != "Ada" || a.Priority != model.PriorityMedium {
		t.Fatalf("expected member name and default priority, got %+v", a)
	}
	c := v.Columns[2].Cards[0]
	if c.Assignee != "Unassigned" || c.Progress() != "1/2" || c.CommentCount != 4 || !c.Pending {
		t.Fatalf("unexpected card c: %+v", c)
	}
}

func TestBuildView_DoesNotModifyInputs(t *testing.T) {
	tasks := map[int64]model.Task{1: {ID: 1, Content: "a", Status: model.StatusTodo}}
	order := map[model.Status][]int64{model.StatusTodo: {1}}

	_ = BuildView(tasks, order, nil, nil)

	if tasks[1].Priority != "" {
		t.Fatalf("BuildView wrote the default priority back into the cache")
	}
	if len(order) != 1 || len(order[model.StatusTodo]) != 1 {
		t.Fatalf("BuildView changed the order: %v", order)
	}
}

func TestView_Find(t *testing.T) {
	v := BuildView(map[int64]model.Task{5: {ID: 5, Status: model.StatusDone}}, map[model.Status][]int64{model.StatusDone: {5}}, nil, nil)
	ci, ii, ok := v.Find(5)
	if !ok || ci != 2 || ii != 0 {
		t.Fatalf("unexpected Find result: %d %d %v", ci, ii, ok)
	}
	if _, _, ok := v.Find(6); ok {
		t.Fatalf("expected miss for unknown id")
	}
	if v.ColumnIndex(model.StatusInProgress) != 1 || v.ColumnIndex("x") != -1 {
		t.Fatalf("unexpected column indexes")
	}
}
