// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/progress"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/app/system/paging"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// maxMembershipFilter caps the number of project memberships used to scope a
// task list query, matching the store-side clamp.
const maxMembershipFilter = 30

// Handler serves task CRUD. A user sees their own tasks plus those in
// projects they belong to; admins see everything. Every mutation triggers a
// progress recomputation for the affected project.
type Handler struct {
	Tasks    *taskstore.Store
	Projects *projectstore.Store
	Progress *progress.Recomputer
	Notify   *notify.Queue
	Log      *zap.Logger
}

func NewHandler(ts *taskstore.Store, ps *projectstore.Store, rec *progress.Recomputer, nq *notify.Queue, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:    ts,
		Projects: ps,
		Progress: rec,
		Notify:   nq,
		Log:      logger,
	}
}

type listResponse struct {
	Tasks []models.Task `json:"tasks"`
	Meta  paging.Meta   `json:"meta"`
}

// ServeList returns the caller's visible tasks, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	win := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.Task
		err  error
	)
	if authz.IsAdmin(r) {
		list, err = h.Tasks.ListAll(ctx, win.Limit, win.Offset)
	} else {
		projectIDs, perr := h.Projects.MemberProjectIDs(ctx, userID, maxMembershipFilter)
		if perr != nil {
			httpapi.StoreError(w, h.Log, "resolve memberships", perr)
			return
		}
		list, err = h.Tasks.ListForUser(ctx, userID, projectIDs, win.Limit, win.Offset)
	}
	if err != nil {
		httpapi.StoreError(w, h.Log, "list tasks", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, listResponse{Tasks: list, Meta: paging.MetaFor(win, len(list))})
}

type createRequest struct {
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority"`
	DueDate   *time.Time `json:"due_date"`
	ProjectID string     `json:"project_id"`
}

// HandleCreate files a task. An empty project_id puts it in the catch-all
// General project, which never carries progress.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	projectID := models.GeneralProjectID
	projectName := "General"
	if req.ProjectID != "" {
		id, err := primitive.ObjectIDFromHex(req.ProjectID)
		if err != nil {
			httpapi.ValidationError(w, "invalid project id")
			return
		}
		p, err := h.Projects.GetByID(ctx, id)
		if err != nil {
			httpapi.StoreError(w, h.Log, "load project", err)
			return
		}
		if !canUseProject(r, p, userID) {
			httpapi.Error(w, http.StatusForbidden, "you do not have access to this project")
			return
		}
		projectID = p.ID
		projectName = p.Name
	}

	t, err := h.Tasks.Create(ctx, models.Task{
		Title:       req.Title,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ProjectID:   projectID,
		ProjectName: projectName,
		UserID:      userID,
	})
	if err != nil {
		h.push(userID, notify.Error, "Could not create task")
		httpapi.ValidationError(w, err.Error())
		return
	}

	h.recompute(projectID)
	h.push(userID, notify.Success, "Task \""+t.Title+"\" created")
	httpapi.JSON(w, http.StatusCreated, t)
}

// ServeTask returns a single task.
func (h *Handler) ServeTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if !h.canView(r, t) {
		httpapi.Error(w, http.StatusForbidden, "you do not have access to this task")
		return
	}
	httpapi.JSON(w, http.StatusOK, t)
}

type updateRequest struct {
	Title    *string    `json:"title"`
	Status   *string    `json:"status"`
	Priority *string    `json:"priority"`
	DueDate  *time.Time `json:"due_date"`
	ClearDue bool       `json:"clear_due"`
}

// HandleUpdate edits task fields and recomputes project progress, since any
// edit may flip the task in or out of "done".
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if !h.canEdit(r, t) {
		httpapi.Error(w, http.StatusForbidden, "you cannot edit this task")
		return
	}

	var req updateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	upd := taskstore.Update{
		Title:    req.Title,
		Status:   req.Status,
		Priority: req.Priority,
		DueDate:  req.DueDate,
		ClearDue: req.ClearDue,
	}
	if err := h.Tasks.UpdateInfo(ctx, t.ID, upd); err != nil {
		httpapi.ValidationError(w, err.Error())
		return
	}

	updated, err := h.Tasks.GetByID(ctx, t.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload task", err)
		return
	}

	h.recompute(t.ProjectID)
	httpapi.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a task and recomputes the project's progress.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if !h.canEdit(r, t) {
		httpapi.Error(w, http.StatusForbidden, "you cannot delete this task")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Tasks.Delete(ctx, t.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "delete task", err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "not found")
		return
	}

	h.recompute(t.ProjectID)
	if _, _, userID, ok := authz.UserCtx(r); ok {
		h.push(userID, notify.Success, "Task \""+t.Title+"\" deleted")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadTask(w http.ResponseWriter, r *http.Request) (models.Task, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid task id")
		return models.Task{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load task", err)
		return models.Task{}, false
	}
	return t, true
}

// recompute refreshes the derived progress percentage after a task mutation.
// Failures are logged, never surfaced: the reconciliation sweep will converge
// the value eventually.
func (h *Handler) recompute(projectID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()
	if err := h.Progress.Recompute(ctx, projectID); err != nil {
		h.Log.Warn("progress recompute failed",
			zap.String("project_id", projectID.Hex()),
			zap.Error(err))
	}
}

func (h *Handler) canView(r *http.Request, t models.Task) bool {
	if authz.IsAdmin(r) {
		return true
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if t.UserID == userID {
		return true
	}
	if t.ProjectID == models.GeneralProjectID {
		return false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return false
	}
	return canUseProject(r, p, userID)
}

// canEdit allows the task creator, the owning project's owner, and admins.
func (h *Handler) canEdit(r *http.Request, t models.Task) bool {
	if authz.IsAdmin(r) {
		return true
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if t.UserID == userID {
		return true
	}
	if t.ProjectID == models.GeneralProjectID {
		return false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return false
	}
	return p.OwnerID == userID
}

func canUseProject(r *http.Request, p models.Project, userID primitive.ObjectID) bool {
	if authz.IsAdmin(r) || p.OwnerID == userID {
		return true
	}
	for _, m := range p.MemberIDs {
		if m == userID {
			return true
		}
	}
	return false
}

func (h *Handler) push(userID primitive.ObjectID, severity, msg string) {
	if h.Notify != nil {
		h.Notify.Push(userID.Hex(), severity, msg)
	}
}
