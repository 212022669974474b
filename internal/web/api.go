package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"spm-client/internal/analytics"
	"spm-client/internal/auth"
	"spm-client/internal/httpx"
	"spm-client/internal/logger"
	"spm-client/internal/projects"
	"spm-client/internal/tasks"
)

const maxUploadBytes = 10 << 20

type api struct {
	tasks    *tasks.Client
	projects *projects.Client
	rec      *analytics.Recorder
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// upstreamError answers for a failed service call. Input rejected before
// the call goes back as 400.
func upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.FromContext(r.Context()).Warn("upstream call failed", "path", r.URL.Path, "err", err)
	httpx.RelayError(w, err)
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func payloadSize(p tasks.Payload) int {
	switch v := p.(type) {
	case tasks.FlatPayload:
		return len(v.Tasks)
	case tasks.SplitPayload:
		return len(v.Mine) + len(v.Team())
	default:
		return 0
	}
}

func (a *api) listTasks(w http.ResponseWriter, r *http.Request) {
	p, err := a.tasks.ListPayload(r.Context())
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	out := tasks.Normalize(p)

	a.rec.ObservePayload(string(p.Shape()), payloadSize(p), len(out))
	a.rec.Log(r.Context(), analytics.FromRequest(r), "task_list_loaded", map[string]any{
		"shape": string(p.Shape()),
		"count": len(out),
	})
	writeJSON(w, http.StatusOK, out)
}

type groupSummary struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type groupsResponse struct {
	Shape  tasks.Shape    `json:"shape"`
	Mine   int            `json:"mine"`
	Groups []groupSummary `json:"groups"`
}

// listTaskGroups reports how GET /tasks was split, keeping the team group
// keys that the flat list drops.
func (a *api) listTaskGroups(w http.ResponseWriter, r *http.Request) {
	p, err := a.tasks.ListPayload(r.Context())
	if err != nil {
		upstreamError(w, r, err)
		return
	}

	resp := groupsResponse{Shape: p.Shape(), Groups: []groupSummary{}}
	switch v := p.(type) {
	case tasks.FlatPayload:
		resp.Mine = len(v.Tasks)
	case tasks.SplitPayload:
		resp.Mine = len(v.Mine)
		for _, g := range v.Groups {
			resp.Groups = append(resp.Groups, groupSummary{Key: g.Key, Count: len(g.Tasks)})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) createTask(w http.ResponseWriter, r *http.Request) {
	var in tasks.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if e, ok := auth.EmployeeFromContext(r.Context()); ok {
		if in.EmployeeID == 0 {
			in.EmployeeID = e.EmployeeID
		}
		if in.Role == "" {
			in.Role = e.Role
		}
	}

	raw, err := a.tasks.Create(r.Context(), in)
	if err != nil {
		upstreamError(w, r, err)
		return
	}

	a.rec.Log(r.Context(), analytics.FromRequest(r), "task_created", map[string]any{
		"has_attachment": in.Attachment != nil,
		"has_project":    in.ProjectID != nil,
		"is_subtask":     in.ParentID != nil,
		"collaborators":  len(in.Collaborators),
	})
	writeJSON(w, http.StatusCreated, raw)
}

func (a *api) moveTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}
	var body struct {
		ProjectID int `json:"project_id"`
		Owner     int `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if body.ProjectID <= 0 {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}
	if body.Owner == 0 {
		if e, ok := auth.EmployeeFromContext(r.Context()); ok {
			body.Owner = e.EmployeeID
		}
	}

	raw, err := a.tasks.UpdateProject(r.Context(), taskID, body.ProjectID, body.Owner)
	if err != nil {
		upstreamError(w, r, err)
		return
	}

	a.rec.Log(r.Context(), analytics.FromRequest(r), "task_project_changed", map[string]any{
		"task_id":    taskID,
		"project_id": body.ProjectID,
	})
	writeJSON(w, http.StatusOK, raw)
}

func (a *api) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	f, hdr, err := r.FormFile("attachment")
	if err != nil {
		http.Error(w, "attachment is required", http.StatusBadRequest)
		return
	}
	defer f.Close()

	att, err := a.tasks.UploadAttachment(r.Context(), hdr.Filename, f)
	if errors.Is(err, tasks.ErrAttachmentType) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, att)
}

func (a *api) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := a.projects.List(r.Context())
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) createProject(w http.ResponseWriter, r *http.Request) {
	var in projects.CreateProjectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	p, err := a.projects.Create(r.Context(), in)
	if err != nil {
		upstreamError(w, r, err)
		return
	}

	a.rec.Log(r.Context(), analytics.FromRequest(r), "project_created", map[string]any{
		"project_id": p.ID,
	})
	writeJSON(w, http.StatusCreated, p)
}

func (a *api) archiveProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	p, err := a.projects.Archive(r.Context(), id)
	if err != nil {
		upstreamError(w, r, err)
		return
	}

	a.rec.Log(r.Context(), analytics.FromRequest(r), "project_archived", map[string]any{
		"project_id": p.ID,
	})
	writeJSON(w, http.StatusOK, p)
}
