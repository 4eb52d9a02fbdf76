package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"taskboard-cli/internal/model"
	"taskboard-cli/internal/sandbox"
)

func runCLI(t *testing.T, stdin io.Reader, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

type cliEnv struct {
	t      *testing.T
	srv    *sandbox.Server
	url    string
	cfgDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	srv := sandbox.New(nil)
	srv.SeedDemo("7")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &cliEnv{t: t, srv: srv, url: ts.URL, cfgDir: t.TempDir()}
}

func (e *cliEnv) args(extra ...string) []string {
	return append([]string{"--server", e.url, "--project", "7", "--config-dir", e.cfgDir}, extra...)
}

// mustRun runs a command that must succeed and returns its JSON envelope.
func (e *cliEnv) mustRun(args ...string) map[string]any {
	e.t.Helper()
	stdout, stderr, err := runCLI(e.t, nil, e.args(args...))
	if err != nil {
		e.t.Fatalf("command failed: taskboard %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		e.t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, stdout, args)
	}
	if _, ok := env["data"]; !ok {
		e.t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return env
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %#v", env["data"])
	}
	return m
}

func TestTasksList_FiltersByStatus(t *testing.T) {
	e := newCLIEnv(t)

	all := e.mustRun("tasks", "list")
	if xs, _ := all["data"].([]any); len(xs) != 3 {
		t.Fatalf("expected 3 tasks, got %#v", all["data"])
	}
	meta, _ := all["meta"].(map[string]any)
	if meta["project"] != "7" {
		t.Fatalf("expected project meta 7, got %#v", meta)
	}

	done := e.mustRun("tasks", "list", "--status", "done")
	xs, _ := done["data"].([]any)
	if len(xs) != 1 {
		t.Fatalf("expected 1 done task, got %#v", done["data"])
	}
	if c, _ := xs[0].(map[string]any)["content"].(string); c != "Set up CI" {
		t.Fatalf("unexpected done task: %#v", xs[0])
	}

	if _, stderr, err := runCLI(t, nil, e.args("tasks", "list", "--status", "later")); err == nil {
		t.Fatalf("expected unknown status to fail")
	} else if !strings.Contains(string(stderr), "error:") {
		t.Fatalf("expected error on stderr, got %q", stderr)
	}
}

func TestTasksCreateUpdateMove(t *testing.T) {
	e := newCLIEnv(t)

	created := dataMap(t, e.mustRun("tasks", "create", "--content", "Ship it", "--priority", "high", "--due", "2031-02-03", "--assignee", "2"))
	if created["status"] != string(model.StatusTodo) || created["priority"] != string(model.PriorityHigh) {
		t.Fatalf("unexpected created task: %#v", created)
	}
	if created["assignee_name"] != "Linus" {
		t.Fatalf("expected assignee name resolved, got %#v", created["assignee_name"])
	}
	id := jsonID(created["id"])

	// Only --content changes; the rest carries over.
	updated := dataMap(t, e.mustRun("tasks", "update", id, "--content", "Ship it now"))
	if updated["content"] != "Ship it now" || updated["priority"] != "high" || updated["due_date"] != "2031-02-03" {
		t.Fatalf("update lost fields: %#v", updated)
	}

	moved := dataMap(t, e.mustRun("tasks", "move", id, "--status", "in-progress"))
	if moved["status"] != string(model.StatusInProgress) {
		t.Fatalf("expected inprogress, got %#v", moved["status"])
	}
	if got := e.srv.Tasks("7")[model.StatusInProgress]; len(got) != 2 {
		t.Fatalf("expected 2 tasks in progress on the server, got %+v", got)
	}

	shown := dataMap(t, e.mustRun("tasks", "show", id))
	if shown["content"] != "Ship it now" {
		t.Fatalf("show: %#v", shown)
	}
}

func TestTasksCreate_EmptyContentSendsNothing(t *testing.T) {
	e := newCLIEnv(t)

	_, stderr, err := runCLI(t, nil, e.args("tasks", "create", "--content", "   "))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(string(stderr), "content") {
		t.Fatalf("expected content error, got %q", stderr)
	}
	if n := e.srv.CountRequests(http.MethodPost, "/projects/7/tasks"); n != 0 {
		t.Fatalf("expected no POST, got %d", n)
	}
}

func TestTasksDelete_PromptsUnlessYes(t *testing.T) {
	e := newCLIEnv(t)

	stdout, stderr, err := runCLI(t, strings.NewReader("n\n"), e.args("tasks", "delete", "3"))
	if err != nil {
		t.Fatalf("declined delete should succeed: %v\n%s", err, stderr)
	}
	if !strings.Contains(string(stderr), "[y/N]") {
		t.Fatalf("expected prompt on stderr, got %q", stderr)
	}
	if !strings.Contains(string(stdout), `"deleted":false`) {
		t.Fatalf("expected deleted=false, got %s", stdout)
	}
	if n := e.srv.CountRequests(http.MethodDelete, "/projects/7/tasks/3"); n != 0 {
		t.Fatalf("declined delete sent %d requests", n)
	}

	out := dataMap(t, e.mustRun("tasks", "delete", "3", "--yes"))
	if out["deleted"] != true {
		t.Fatalf("expected deleted=true, got %#v", out)
	}
	if got := e.srv.Tasks("7")[model.StatusDone]; len(got) != 0 {
		t.Fatalf("expected done column empty, got %+v", got)
	}

	if _, _, err := runCLI(t, nil, e.args("tasks", "delete", "3", "-y")); err == nil {
		t.Fatalf("expected deleting a missing task to fail")
	}
}

func TestSubtasksAndComments(t *testing.T) {
	e := newCLIEnv(t)

	added := dataMap(t, e.mustRun("subtasks", "add", "2", "--content", "Reproduce"))
	subID := jsonID(added["id"])

	env := e.mustRun("subtasks", "toggle", "2", subID)
	if dataMap(t, env)["is_complete"] != true {
		t.Fatalf("expected toggled subtask complete, got %#v", env["data"])
	}
	if meta, _ := env["meta"].(map[string]any); meta["progress"] != "1/1" {
		t.Fatalf("expected progress 1/1, got %#v", env["meta"])
	}

	env = e.mustRun("subtasks", "set", "2", subID, "--complete=false")
	if meta, _ := env["meta"].(map[string]any); meta["progress"] != "0/1" {
		t.Fatalf("expected progress 0/1, got %#v", env["meta"])
	}

	e.mustRun("comments", "add", "2", "--body", "Seen on **staging** too")
	list := e.mustRun("comments", "list", "2")
	xs, _ := list["data"].([]any)
	if len(xs) != 1 {
		t.Fatalf("expected one comment, got %#v", list["data"])
	}
	if c, _ := xs[0].(map[string]any)["content"].(string); !strings.Contains(c, "staging") {
		t.Fatalf("unexpected comment: %#v", xs[0])
	}

	if _, _, err := runCLI(t, nil, e.args("subtasks", "toggle", "2", "9999")); err == nil {
		t.Fatalf("expected unknown subtask to fail")
	}
}

func TestMembers_ListAndAdd(t *testing.T) {
	e := newCLIEnv(t)

	list := e.mustRun("members", "list")
	xs, _ := list["data"].([]any)
	if len(xs) != 2 {
		t.Fatalf("expected 2 members, got %#v", list["data"])
	}
	if role, _ := xs[0].(map[string]any)["role"].(string); role != string(model.RoleOwner) {
		t.Fatalf("expected owner first, got %#v", xs[0])
	}

	env := e.mustRun("members", "add", "--email", "grace@example.com")
	if meta, _ := env["meta"].(map[string]any); jsonID(meta["members"]) != "3" {
		t.Fatalf("expected 3 members after add, got %#v", env["meta"])
	}

	// The server answers 200 with status=error for duplicates.
	_, stderr, err := runCLI(t, nil, e.args("members", "add", "--email", "grace@example.com"))
	if err == nil {
		t.Fatalf("expected duplicate member to fail")
	}
	if !strings.Contains(string(stderr), "already a member") {
		t.Fatalf("expected server message, got %q", stderr)
	}
}

func TestBoard_TextFormat(t *testing.T) {
	e := newCLIEnv(t)

	stdout, stderr, err := runCLI(t, nil, e.args("--format", "text", "board"))
	if err != nil {
		t.Fatalf("board: %v\n%s", err, stderr)
	}
	for _, want := range []string{"To Do (1)", "In Progress (1)", "Done (1)", "Write the launch checklist"} {
		if !strings.Contains(string(stdout), want) {
			t.Fatalf("expected %q in:\n%s", want, stdout)
		}
	}

	if _, _, err := runCLI(t, nil, e.args("--format", "yaml", "board")); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestProjectsCreate(t *testing.T) {
	e := newCLIEnv(t)

	env := e.mustRun("projects", "create", "--name", "Launch")
	if dataMap(t, env)["name"] != "Launch" {
		t.Fatalf("unexpected project: %#v", env["data"])
	}
	if hints, _ := env["_hints"].([]any); len(hints) != 1 {
		t.Fatalf("expected a config hint, got %#v", env["_hints"])
	}
}

func TestConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()

	if _, stderr, err := runCLI(t, nil, []string{"--config-dir", dir, "config", "set", "timeout", "3s"}); err != nil {
		t.Fatalf("config set: %v\n%s", err, stderr)
	}
	if _, stderr, err := runCLI(t, nil, []string{"--config-dir", dir, "config", "set", "session", "secret"}); err != nil {
		t.Fatalf("config set: %v\n%s", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	stdout, _, err := runCLI(t, nil, []string{"--config-dir", dir, "--project", "9", "config", "show"})
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, stdout)
	}
	data := dataMap(t, env)
	if data["timeout"] != "3s" || data["project"] != "9" {
		t.Fatalf("unexpected resolved config: %#v", data)
	}
	if data["session"] != "(set)" {
		t.Fatalf("session should be masked, got %#v", data["session"])
	}

	if _, _, err := runCLI(t, nil, []string{"--config-dir", dir, "config", "set", "timeout", "soon"}); err == nil {
		t.Fatalf("expected invalid duration to fail")
	}
	if _, _, err := runCLI(t, nil, []string{"--config-dir", dir, "config", "set", "colour", "red"}); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestServerDown_ReportsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, stderr, err := runCLI(t, nil, []string{"--server", url, "--config-dir", t.TempDir(), "tasks", "list"})
	if err == nil {
		t.Fatalf("expected failure against a closed server")
	}
	if !strings.Contains(string(stderr), "error: server unreachable") {
		t.Fatalf("expected error line, got %q", stderr)
	}
}

func jsonID(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatInt(int64(x), 10)
	case string:
		return x
	}
	return ""
}

func TestExport_WritesMarkdownAndHTML(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("comments", "add", "1", "--body", "Ready for review")

	out := t.TempDir()
	env := e.mustRun("export", "--to", out, "--html", "--comments")
	written, _ := dataMap(t, env)["written"].([]any)
	if len(written) != 2 {
		t.Fatalf("expected two files, got %#v", env["data"])
	}
	b, err := os.ReadFile(filepath.Join(out, "board.md"))
	if err != nil {
		t.Fatalf("read board.md: %v", err)
	}
	for _, want := range []string{"# Project 7", "## In Progress (1)", "- [x] Collect feedback", "Ready for review"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("expected %q in:\n%s", want, b)
		}
	}

	if _, _, err := runCLI(t, nil, e.args("export", "--to", out)); err == nil {
		t.Fatalf("expected second export without --overwrite to fail")
	}
}
