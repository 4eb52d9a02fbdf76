// Package sandbox is an in-memory implementation of the board REST API. It
// backs the tests of every client-side package and the `taskboard sandbox`
// command.
package sandbox

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskboard-cli/internal/model"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// LegacyProject is the key of the single board served without a project prefix.
const LegacyProject = ""

// Request is one recorded request.
type Request struct {
	Method    string
	Path      string
	Body      []byte
	RequestID string
	Cookie    string
}

type failure struct {
	method  string
	path    string
	status  int
	message string
}

type project struct {
	id       int64
	name     string
	order    []int64
	tasks    map[int64]*model.Task
	members  []model.Member
	comments map[int64][]model.Comment
}

func newProject(id int64, name string) *project {
	return &project{
		id:       id,
		name:     name,
		tasks:    map[int64]*model.Task{},
		comments: map[int64][]model.Comment{},
	}
}

type Server struct {
	mu       sync.Mutex
	nextID   int64
	projects map[string]*project
	failures []failure
	requests []Request
	log      logrus.FieldLogger
	now      func() time.Time
}

func New(log logrus.FieldLogger) *Server {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Server{
		nextID:   100,
		projects: map[string]*project{LegacyProject: newProject(0, "board")},
		log:      log,
		now:      time.Now,
	}
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

// Seed replaces a project's tasks and members. Tasks keep their ids and order;
// subtasks without an id get one.
func (s *Server) Seed(projectID string, tasks []model.Task, members []model.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := newProject(s.newID(), "project "+projectID)
	if n, err := strconv.ParseInt(projectID, 10, 64); err == nil {
		p.id = n
	}
	p.members = append([]model.Member(nil), members...)
	for _, t := range tasks {
		t := t
		if t.ID == 0 {
			t.ID = s.newID()
		}
		if t.ID > s.nextID {
			s.nextID = t.ID
		}
		if t.Status == "" {
			t.Status = model.StatusTodo
		}
		t.Priority = t.EffectivePriority()
		t.Subtasks = append([]model.Subtask(nil), t.Subtasks...)
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == 0 {
				t.Subtasks[i].ID = s.newID()
			}
			t.Subtasks[i].TaskID = t.ID
		}
		resolveAssignee(p, &t)
		p.tasks[t.ID] = &t
		p.order = append(p.order, t.ID)
	}
	s.projects[projectID] = p
}

// FailNext makes the next request matching method and path fail. Status 0
// drops the connection without a response.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, message: message})
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts recorded requests with the given method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Tasks snapshots a project's board.
func (s *Server) Tasks(projectID string) model.TasksByStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projects[projectID]
	if p == nil {
		return nil
	}
	return p.byStatus()
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recordMiddleware)

	r.HandleFunc("/projects", s.createProject).Methods(http.MethodPost)
	for _, prefix := range []string{"/projects/{pid}", ""} {
		r.HandleFunc(prefix+"/tasks", s.withProject(s.listTasks)).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/tasks", s.withProject(s.createTask)).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/tasks/{id:[0-9]+}", s.withProject(s.updateTask)).Methods(http.MethodPut)
		r.HandleFunc(prefix+"/tasks/{id:[0-9]+}", s.withProject(s.deleteTask)).Methods(http.MethodDelete)
		r.HandleFunc(prefix+"/tasks/{id:[0-9]+}/status", s.withProject(s.setStatus)).Methods(http.MethodPut)
		r.HandleFunc(prefix+"/tasks/{id:[0-9]+}/comments", s.withProject(s.listComments)).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/tasks/{id:[0-9]+}/comments", s.withProject(s.addComment)).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/members", s.withProject(s.listMembers)).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/members", s.withProject(s.addMember)).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/subtasks", s.withProject(s.createSubtask)).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/subtasks/{id:[0-9]+}", s.withProject(s.setSubtask)).Methods(http.MethodPut)
	}
	return r
}

func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		rec := Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Body:      body,
			RequestID: r.Header.Get("X-Request-ID"),
		}
		if c, err := r.Cookie("session"); err == nil {
			rec.Cookie = c.Value
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		var injected *failure
		for i, f := range s.failures {
			if f.method == r.Method && f.path == r.URL.Path {
				f := f
				injected = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("sandbox request")

		if injected != nil {
			if injected.status == 0 {
				dropConnection(w)
				return
			}
			writeJSON(w, injected.status, map[string]any{"error": injected.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

type projectHandler func(w http.ResponseWriter, r *http.Request, p *project)

// withProject resolves the project and holds the server lock for the handler.
func (s *Server) withProject(h projectHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid := mux.Vars(r)["pid"]
		s.mu.Lock()
		defer s.mu.Unlock()
		p := s.projects[pid]
		if p == nil {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		h(w, r, p)
	}
}

func (p *project) byStatus() model.TasksByStatus {
	out := model.TasksByStatus{}
	for _, st := range model.Statuses() {
		out[st] = []model.Task{}
	}
	for _, id := range p.order {
		t := p.tasks[id]
		if t == nil {
			continue
		}
		cp := *t
		cp.Subtasks = append([]model.Subtask(nil), t.Subtasks...)
		out[cp.Status] = append(out[cp.Status], cp)
	}
	return out
}

func resolveAssignee(p *project, t *model.Task) bool {
	if t.AssigneeID == nil {
		t.AssigneeName = ""
		return true
	}
	for _, m := range p.members {
		if m.UserID == *t.AssigneeID {
			t.AssigneeName = m.Name
			return true
		}
	}
	return false
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func decode(r *http.Request, v any) error {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(b, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "Project name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.projects[strconv.FormatInt(id, 10)] = newProject(id, strings.TrimSpace(in.Name))
	writeJSON(w, http.StatusCreated, model.Project{ID: id, Name: strings.TrimSpace(in.Name)})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, p *project) {
	writeJSON(w, http.StatusOK, p.byStatus())
}

func (s *Server) applyInput(w http.ResponseWriter, r *http.Request, p *project, t *model.Task) bool {
	var in model.TaskInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	in = in.Normalize()
	if in.Content == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return false
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	next := *t
	next.Content = in.Content
	next.Priority = in.Priority
	next.DueDate = in.DueDate
	next.AssigneeID = in.AssigneeID
	if !resolveAssignee(p, &next) {
		writeError(w, http.StatusBadRequest, "Assignee is not a project member")
		return false
	}
	*t = next
	return true
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request, p *project) {
	t := &model.Task{Status: model.StatusTodo}
	if !s.applyInput(w, r, p, t) {
		return
	}
	t.ID = s.newID()
	p.tasks[t.ID] = t
	p.order = append(p.order, t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, p *project) {
	t := p.tasks[pathID(r)]
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if !s.applyInput(w, r, p, t) {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, p *project) {
	id := pathID(r)
	if p.tasks[id] == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	delete(p.tasks, id)
	delete(p.comments, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, p *project) {
	t := p.tasks[pathID(r)]
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	var in struct {
		Status model.Status `json:"status"`
	}
	if err := decode(r, &in); err != nil || !model.IsKnownStatus(in.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if t.Status != in.Status {
		t.Status = in.Status
		// A move lands at the end of the target column.
		for i, oid := range p.order {
			if oid == t.ID {
				p.order = append(append(p.order[:i:i], p.order[i+1:]...), t.ID)
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request, p *project) {
	out := append([]model.Member{}, p.members...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Role == model.RoleOwner && out[j].Role != model.RoleOwner })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request, p *project) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.Email) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "error": "Email is required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	for _, m := range p.members {
		if strings.EqualFold(m.Email, email) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "error", "error": "User is already a member of this project"})
			return
		}
	}
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	p.members = append(p.members, model.Member{UserID: s.newID(), Name: name, Email: email, Role: model.RoleMember})
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Member added"})
}

func (s *Server) createSubtask(w http.ResponseWriter, r *http.Request, p *project) {
	var in struct {
		Content string `json:"content"`
		TaskID  int64  `json:"task_id"`
	}
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.Content) == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}
	t := p.tasks[in.TaskID]
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	st := model.Subtask{ID: s.newID(), TaskID: t.ID, Content: strings.TrimSpace(in.Content)}
	if len(p.members) > 0 {
		st.CreatedBy = p.members[0].UserID
	}
	t.Subtasks = append(t.Subtasks, st)
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) setSubtask(w http.ResponseWriter, r *http.Request, p *project) {
	var in struct {
		IsComplete *bool `json:"is_complete"`
	}
	if err := decode(r, &in); err != nil || in.IsComplete == nil {
		writeError(w, http.StatusBadRequest, "is_complete is required")
		return
	}
	id := pathID(r)
	for _, t := range p.tasks {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == id {
				t.Subtasks[i].IsComplete = *in.IsComplete
				writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, "Subtask not found")
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request, p *project) {
	id := pathID(r)
	if p.tasks[id] == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, append([]model.Comment{}, p.comments[id]...))
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request, p *project) {
	id := pathID(r)
	t := p.tasks[id]
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	var in struct {
		Content string `json:"content"`
	}
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.Content) == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}
	author := "sandbox"
	if len(p.members) > 0 {
		author = p.members[0].Name
	}
	c := model.Comment{
		ID:        s.newID(),
		Author:    author,
		Content:   strings.TrimSpace(in.Content),
		CreatedAt: s.now().Format("2006-01-02 15:04:05"),
	}
	p.comments[id] = append(p.comments[id], c)
	t.CommentCount = len(p.comments[id])
	writeJSON(w, http.StatusCreated, c)
}
