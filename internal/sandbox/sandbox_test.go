package sandbox

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"taskboard-cli/internal/model"

	"github.com/bytedance/sonic"
)

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSandbox_TaskLifecycle(t *testing.T) {
	s := New(nil)
	s.Seed("7", nil, []model.Member{{UserID: 1, Name: "Ada", Email: "ada@example.com", Role: model.RoleOwner}})
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/projects/7/tasks", `{"content":"write docs","assignee_id":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created model.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Priority != model.PriorityMedium || created.AssigneeName != "Ada" || created.Status != model.StatusTodo {
		t.Fatalf("unexpected created task: %+v", created)
	}

	path := "/projects/7/tasks/" + strconv.FormatInt(created.ID, 10)
	if rec := doJSON(t, h, http.MethodPut, path+"/status", `{"status":"done"}`); rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}
	board := s.Tasks("7")
	if len(board[model.StatusDone]) != 1 || len(board[model.StatusTodo]) != 0 {
		t.Fatalf("expected task in done column, got %+v", board)
	}

	if rec := doJSON(t, h, http.MethodPost, path+"/comments", `{"content":"looks good"}`); rec.Code != http.StatusCreated {
		t.Fatalf("comment: expected 201, got %d", rec.Code)
	}
	if got := s.Tasks("7")[model.StatusDone][0].CommentCount; got != 1 {
		t.Fatalf("expected comment_count 1, got %d", got)
	}

	if rec := doJSON(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestSandbox_RejectsEmptyContentAndUnknownProject(t *testing.T) {
	s := New(nil)
	h := s.Handler()
	if rec := doJSON(t, h, http.MethodPost, "/tasks", `{"content":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/projects/999/tasks", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown project, got %d", rec.Code)
	}
}

func TestSandbox_FailNextIsOneShot(t *testing.T) {
	s := New(nil)
	h := s.Handler()
	s.FailNext(http.MethodGet, "/tasks", http.StatusServiceUnavailable, "maintenance")

	if rec := doJSON(t, h, http.MethodGet, "/tasks", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected injected 503, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/tasks", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected recovery after one failure, got %d", rec.Code)
	}
	if n := s.CountRequests(http.MethodGet, "/tasks"); n != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", n)
	}
}

func TestSandbox_AddMemberDuplicateReportsErrorStatus(t *testing.T) {
	s := New(nil)
	h := s.Handler()
	if rec := doJSON(t, h, http.MethodPost, "/members", `{"email":"bob@example.com"}`); !strings.Contains(rec.Body.String(), `"success"`) {
		t.Fatalf("expected success body, got %s", rec.Body.String())
	}
	rec := doJSON(t, h, http.MethodPost, "/members", `{"email":"BOB@example.com"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "already a member") {
		t.Fatalf("expected 200 with error status, got %d %s", rec.Code, rec.Body.String())
	}
}
