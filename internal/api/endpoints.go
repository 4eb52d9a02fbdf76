package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"taskboard-cli/internal/model"
)

func idPath(id int64) string { return "/" + strconv.FormatInt(id, 10) }

func (c *Client) ListTasks(ctx context.Context) (model.TasksByStatus, error) {
	out := model.TasksByStatus{}
	err := c.do(ctx, http.MethodGet, c.projectRoute("/tasks"), c.projectPath("/tasks"), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, c.projectRoute("/tasks"), c.projectPath("/tasks"), in.Normalize(), &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id int64, in model.TaskInput) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPut, c.projectRoute("/tasks/{id}"), c.projectPath("/tasks"+idPath(id)), in.Normalize(), &out)
	return out, err
}

func (c *Client) SetTaskStatus(ctx context.Context, id int64, status model.Status) error {
	body := map[string]any{"status": status}
	return c.do(ctx, http.MethodPut, c.projectRoute("/tasks/{id}/status"), c.projectPath("/tasks"+idPath(id)+"/status"), body, nil)
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.projectRoute("/tasks/{id}"), c.projectPath("/tasks"+idPath(id)), nil, nil)
}

func (c *Client) ListMembers(ctx context.Context) ([]model.Member, error) {
	out := make([]model.Member, 0)
	err := c.do(ctx, http.MethodGet, c.projectRoute("/members"), c.projectPath("/members"), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type addMemberResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// AddMember invites a user by email and returns the server's message. A 2xx
// body whose status is not "success" is reported as a ServerError.
func (c *Client) AddMember(ctx context.Context, email string) (string, error) {
	var out addMemberResponse
	path := c.projectPath("/members")
	body := map[string]any{"email": strings.TrimSpace(email)}
	if err := c.do(ctx, http.MethodPost, c.projectRoute("/members"), path, body, &out); err != nil {
		return "", err
	}
	if out.Status != "" && out.Status != "success" {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		return "", ServerError{Method: http.MethodPost, Path: path, StatusCode: http.StatusOK, Message: msg}
	}
	return out.Message, nil
}

func (c *Client) CreateSubtask(ctx context.Context, taskID int64, content string) (model.Subtask, error) {
	var out model.Subtask
	body := map[string]any{"content": strings.TrimSpace(content), "task_id": taskID}
	err := c.do(ctx, http.MethodPost, c.projectRoute("/subtasks"), c.projectPath("/subtasks"), body, &out)
	return out, err
}

func (c *Client) SetSubtaskComplete(ctx context.Context, id int64, complete bool) error {
	body := map[string]any{"is_complete": complete}
	return c.do(ctx, http.MethodPut, c.projectRoute("/subtasks/{id}"), c.projectPath("/subtasks"+idPath(id)), body, nil)
}

func (c *Client) ListComments(ctx context.Context, taskID int64) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	err := c.do(ctx, http.MethodGet, c.projectRoute("/tasks/{id}/comments"), c.projectPath("/tasks"+idPath(taskID)+"/comments"), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddComment(ctx context.Context, taskID int64, content string) (model.Comment, error) {
	var out model.Comment
	body := map[string]any{"content": strings.TrimSpace(content)}
	err := c.do(ctx, http.MethodPost, c.projectRoute("/tasks/{id}/comments"), c.projectPath("/tasks"+idPath(taskID)+"/comments"), body, &out)
	return out, err
}

// CreateProject is not project-scoped. Servers that answer with an empty body
// yield a Project carrying only the submitted name.
func (c *Client) CreateProject(ctx context.Context, name string) (model.Project, error) {
	out := model.Project{Name: strings.TrimSpace(name)}
	err := c.do(ctx, http.MethodPost, "/projects", "/projects", map[string]any{"name": out.Name}, &out)
	return out, err
}
