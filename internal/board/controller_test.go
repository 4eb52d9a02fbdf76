package board

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/sandbox"
)

type recorder struct {
	mu      sync.Mutex
	views   []View
	notices []Notice
}

func (r *recorder) Paint(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) paints() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

func (r *recorder) last(level Level) (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.notices) - 1; i >= 0; i-- {
		if r.notices[i].Level == level {
			return r.notices[i], true
		}
	}
	return Notice{}, false
}

type answer bool

func (a answer) Confirm(context.Context, string) bool { return bool(a) }

type fixture struct {
	ctl *Controller
	sb  *sandbox.Server
	rec *recorder
}

// newFixture serves project 7 from a sandbox holding t1 (todo) and t2 (inprogress).
func newFixture(t *testing.T, confirm bool) fixture {
	t.Helper()
	sb := sandbox.New(nil)
	owner := int64(1)
	sb.Seed("7", []model.Task{
		{ID: 1, Content: "t1", Status: model.StatusTodo, AssigneeID: &owner, Subtasks: []model.Subtask{{ID: 11, Content: "s1"}}},
		{ID: 2, Content: "t2", Status: model.StatusInProgress},
	}, []model.Member{
		{UserID: 1, Name: "Ada", Email: "ada@example.com", Role: model.RoleOwner},
		{UserID: 2, Name: "Linus", Email: "linus@example.com", Role: model.RoleMember},
	})
	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)

	client, err := api.New(api.Options{
		BaseURL:    srv.URL,
		ProjectID:  "7",
		HTTPClient: &http.Client{Transport: &http.Transport{DisableKeepAlives: true}},
	})
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	rec := &recorder{}
	ctl, err := New(Options{ProjectID: "7", Backend: client, Notifier: rec, Painter: rec, Confirmer: answer(confirm)})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctl.LoadBoard(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return fixture{ctl: ctl, sb: sb, rec: rec}
}

func columnIDs(v View, st model.Status) []int64 {
	i := v.ColumnIndex(st)
	if i < 0 {
		return nil
	}
	out := make([]int64, 0, len(v.Columns[i].Cards))
	for _, c := range v.Columns[i].Cards {
		out = append(out, c.ID)
	}
	return out
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_RequiresBackend(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without backend")
	}
}

func TestLoadBoard_FetchesMembersBeforeTasks(t *testing.T) {
	f := newFixture(t, true)
	reqs := f.sb.Requests()
	if len(reqs) != 2 || reqs[0].Path != "/projects/7/members" || reqs[1].Path != "/projects/7/tasks" {
		t.Fatalf("unexpected request order: %+v", reqs)
	}
	paints := f.rec.paints()
	if len(paints) != 1 {
		t.Fatalf("expected one paint, got %d", len(paints))
	}
	v := paints[0]
	if !sameIDs(columnIDs(v, model.StatusTodo), []int64{1}) || !sameIDs(columnIDs(v, model.StatusInProgress), []int64{2}) {
		t.Fatalf("unexpected view: %+v", v)
	}
	if card := v.Columns[0].Cards[0]; card.Assignee != "Ada" || card.Progress() != "0/1" {
		t.Fatalf("unexpected card: %+v", card)
	}
	if !f.ctl.Loaded() {
		t.Fatalf("expected Loaded after first fetch")
	}
}

func TestLoadBoard_FailureKeepsCacheAndWarns(t *testing.T) {
	f := newFixture(t, true)
	f.sb.FailNext(http.MethodGet, "/projects/7/tasks", http.StatusInternalServerError, "db down")

	err := f.ctl.LoadBoard(context.Background())
	if !api.IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if n, ok := f.rec.last(LevelWarning); !ok || n.Err == nil {
		t.Fatalf("expected warning notice, got %+v", f.rec.notices)
	}
	if got := len(f.ctl.Tasks()); got != 2 {
		t.Fatalf("expected cache untouched (2 tasks), got %d", got)
	}
	if got := len(f.rec.paints()); got != 1 {
		t.Fatalf("expected no repaint on failure, got %d paints", got)
	}
}

func TestCreateTask_AddsExactlyOneTask(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	before := len(f.ctl.Tasks())
	due := "2031-03-04"
	linus := int64(2)

	created, err := f.ctl.CreateTask(ctx, model.TaskInput{Content: "  ship it  ", Priority: model.PriorityHigh, DueDate: &due, AssigneeID: &linus})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tasks := f.ctl.Tasks()
	if len(tasks) != before+1 {
		t.Fatalf("expected %d tasks, got %d", before+1, len(tasks))
	}
	got, ok := f.ctl.Task(created.ID)
	if !ok {
		t.Fatalf("created task missing from cache")
	}
	if got.Content != "ship it" || got.Priority != model.PriorityHigh || got.DueDate == nil || *got.DueDate != due || got.AssigneeID == nil || *got.AssigneeID != 2 {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.Status != model.StatusTodo {
		t.Fatalf("new tasks start in todo, got %s", got.Status)
	}
}

func TestCreateTask_ValidationSendsNothing(t *testing.T) {
	f := newFixture(t, true)
	before := len(f.sb.Requests())

	_, err := f.ctl.CreateTask(context.Background(), model.TaskInput{Content: "   "})
	if !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if after := len(f.sb.Requests()); after != before {
		t.Fatalf("expected no request, got %d new", after-before)
	}
	if _, ok := f.rec.last(LevelWarning); !ok {
		t.Fatalf("expected a warning notice")
	}
}

func TestCreateTask_RejectionIsReported(t *testing.T) {
	f := newFixture(t, true)
	stranger := int64(99)
	_, err := f.ctl.CreateTask(context.Background(), model.TaskInput{Content: "x", AssigneeID: &stranger})
	if !api.IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	n, ok := f.rec.last(LevelError)
	if !ok || n.String() != "Could not create task: Assignee is not a project member" {
		t.Fatalf("unexpected error notice: %+v", n)
	}
	if len(f.ctl.Tasks()) != 2 {
		t.Fatalf("cache changed after failed create")
	}
}

func TestUpdateTask_TwiceEqualsOnce(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	in := model.TaskInput{Content: "t1 renamed", Priority: model.PriorityLow}

	if _, err := f.ctl.UpdateTask(ctx, 1, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	once, _ := f.ctl.Task(1)
	if _, err := f.ctl.UpdateTask(ctx, 1, in); err != nil {
		t.Fatalf("update again: %v", err)
	}
	twice, _ := f.ctl.Task(1)

	if once.Content != twice.Content || once.Priority != twice.Priority || once.Status != twice.Status || (once.AssigneeID == nil) != (twice.AssigneeID == nil) {
		t.Fatalf("second update changed state: %+v vs %+v", once, twice)
	}
	if twice.Content != "t1 renamed" || twice.Priority != model.PriorityLow {
		t.Fatalf("unexpected task: %+v", twice)
	}
}

func TestUpdateTask_UnknownTask(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.ctl.UpdateTask(context.Background(), 404, model.TaskInput{Content: "x"})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestDeleteTask_ConfirmedRemovesTask(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	if err := f.ctl.OpenDetail(1); err != nil {
		t.Fatalf("open detail: %v", err)
	}

	ok, err := f.ctl.DeleteTask(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("expected delete, got ok=%v err=%v", ok, err)
	}
	if _, ok := f.ctl.Task(1); ok {
		t.Fatalf("task still cached after delete")
	}
	if _, open := f.ctl.Detail(); open {
		t.Fatalf("expected detail view closed")
	}
	if n := f.sb.CountRequests(http.MethodDelete, "/projects/7/tasks/1"); n != 1 {
		t.Fatalf("expected one DELETE, got %d", n)
	}
}

func TestDeleteTask_DeclinedSendsNothing(t *testing.T) {
	f := newFixture(t, false)
	ok, err := f.ctl.DeleteTask(context.Background(), 1)
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
	if n := f.sb.CountRequests(http.MethodDelete, "/projects/7/tasks/1"); n != 0 {
		t.Fatalf("expected no DELETE, got %d", n)
	}
	if _, ok := f.ctl.Task(1); !ok {
		t.Fatalf("task should remain")
	}
}

func TestDeleteTask_FailureLeavesState(t *testing.T) {
	f := newFixture(t, true)
	f.sb.FailNext(http.MethodDelete, "/projects/7/tasks/2", http.StatusForbidden, "Only owners can delete")

	ok, err := f.ctl.DeleteTask(context.Background(), 2)
	if ok || !api.IsRejection(err) {
		t.Fatalf("expected rejection, got ok=%v err=%v", ok, err)
	}
	if _, ok := f.ctl.Task(2); !ok {
		t.Fatalf("task should remain after failed delete")
	}
	if n, ok := f.rec.last(LevelError); !ok || n.Message != "Could not delete task" {
		t.Fatalf("expected error notice, got %+v", n)
	}
}

func TestToggleSubtaskTwiceRestoresRatio(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	ratio := func() string {
		v := f.ctl.View()
		ci, ii, ok := v.Find(1)
		if !ok {
			t.Fatalf("task 1 not in view")
		}
		return v.Columns[ci].Cards[ii].Progress()
	}
	start := ratio()

	done, err := f.ctl.ToggleSubtask(ctx, 1, 11)
	if err != nil || !done {
		t.Fatalf("first toggle: done=%v err=%v", done, err)
	}
	if got := ratio(); got != "1/1" {
		t.Fatalf("expected 1/1 after first toggle, got %s", got)
	}
	done, err = f.ctl.ToggleSubtask(ctx, 1, 11)
	if err != nil || done {
		t.Fatalf("second toggle: done=%v err=%v", done, err)
	}
	if got := ratio(); got != start {
		t.Fatalf("expected ratio %s restored, got %s", start, got)
	}
}

func TestSubtaskAndCommentRefreshDerivedCounts(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if _, err := f.ctl.AddSubtask(ctx, 2, "write tests"); err != nil {
		t.Fatalf("add subtask: %v", err)
	}
	if _, err := f.ctl.AddComment(ctx, 2, "on it"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	task, _ := f.ctl.Task(2)
	if done, total := task.SubtaskProgress(); done != 0 || total != 1 {
		t.Fatalf("expected 0/1 subtasks, got %d/%d", done, total)
	}
	if task.CommentCount != 1 {
		t.Fatalf("expected comment_count from server, got %d", task.CommentCount)
	}
	comments, err := f.ctl.Comments(ctx, 2)
	if err != nil || len(comments) != 1 || comments[0].Content != "on it" {
		t.Fatalf("unexpected comments: %+v err=%v", comments, err)
	}

	if _, err := f.ctl.AddComment(ctx, 2, " "); !model.IsValidation(err) {
		t.Fatalf("expected validation error for empty comment, got %v", err)
	}
	if err := f.ctl.SetSubtaskComplete(ctx, 2, 999, true); err == nil {
		t.Fatalf("expected error for unknown subtask")
	}
}

func TestAddMember_RefreshesAssigneeOptions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	msg, err := f.ctl.AddMember(ctx, "grace@example.com")
	if err != nil || msg != "Member added" {
		t.Fatalf("add member: msg=%q err=%v", msg, err)
	}
	opts := f.ctl.AssigneeOptions()
	if len(opts) != 4 || opts[0].ID != nil || opts[0].Label != "Unassigned" || opts[3].Label != "grace" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := f.ctl.AddMember(ctx, "grace@example.com"); !api.IsRejection(err) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := f.ctl.AddMember(ctx, ""); !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
