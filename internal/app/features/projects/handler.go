// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/progress"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/app/system/paging"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// Handler serves project CRUD and membership management. Admins see every
// project; everyone else sees only projects they own or belong to.
type Handler struct {
	Projects *projectstore.Store
	Tasks    *taskstore.Store
	Progress *progress.Recomputer
	Notify   *notify.Queue
	Log      *zap.Logger
}

func NewHandler(ps *projectstore.Store, ts *taskstore.Store, rec *progress.Recomputer, nq *notify.Queue, logger *zap.Logger) *Handler {
	return &Handler{
		Projects: ps,
		Tasks:    ts,
		Progress: rec,
		Notify:   nq,
		Log:      logger,
	}
}

type listResponse struct {
	Projects []models.Project `json:"projects"`
	Meta     paging.Meta      `json:"meta"`
}

// ServeList returns the caller's project list, newest first.
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
		list []models.Project
		err  error
	)
	if authz.IsAdmin(r) {
		list, err = h.Projects.ListAll(ctx, win.Limit, win.Offset)
	} else {
		list, err = h.Projects.ListForUser(ctx, userID, win.Limit, win.Offset)
	}
	if err != nil {
		httpapi.StoreError(w, h.Log, "list projects", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, listResponse{Projects: list, Meta: paging.MetaFor(win, len(list))})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
}

// HandleCreate creates a project owned by the caller.
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

	p, err := h.Projects.Create(ctx, models.Project{
		Name:        req.Name,
		Description: htmlsanitize.Sanitize(req.Description),
		Category:    req.Category,
		Status:      req.Status,
		OwnerID:     userID,
	})
	if err != nil {
		if errors.Is(err, projectstore.ErrDuplicateName) {
			httpapi.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.pushError(userID, "Could not create project")
		httpapi.StoreError(w, h.Log, "create project", err)
		return
	}

	h.pushSuccess(userID, "Project \""+p.Name+"\" created")
	httpapi.JSON(w, http.StatusCreated, p)
}

// ServeProject returns one project. Only admins, the owner and members may
// view it.
func (h *Handler) ServeProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	if !h.canView(r, p) {
		httpapi.Error(w, http.StatusForbidden, "you do not have access to this project")
		return
	}
	httpapi.JSON(w, http.StatusOK, p)
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
}

// HandleUpdate edits project fields. When the name changes the denormalized
// project_name on the project's tasks is refreshed in the same request; a
// failure there is logged and left for the reconciliation sweep.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	if !h.canManage(r, p) {
		httpapi.Error(w, http.StatusForbidden, "only the project owner or an admin can edit this project")
		return
	}

	var req updateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		req.Description = &clean
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	upd := projectstore.Update{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
	}
	if err := h.Projects.UpdateInfo(ctx, p.ID, upd); err != nil {
		if errors.Is(err, projectstore.ErrDuplicateName) {
			httpapi.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpapi.StoreError(w, h.Log, "update project", err)
		return
	}

	updated, err := h.Projects.GetByID(ctx, p.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload project", err)
		return
	}

	if req.Name != nil && updated.Name != p.Name {
		if n, err := h.Tasks.RefreshProjectName(ctx, p.ID, updated.Name); err != nil {
			h.Log.Warn("refresh task project names failed",
				zap.String("project_id", p.ID.Hex()),
				zap.Error(err))
		} else if n > 0 {
			h.Log.Info("task project names refreshed",
				zap.String("project_id", p.ID.Hex()),
				zap.Int64("tasks", n))
		}
	}

	if _, _, userID, ok := authz.UserCtx(r); ok {
		h.pushSuccess(userID, "Project \""+updated.Name+"\" updated")
	}
	httpapi.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a project. The catch-all General project is protected
// and deleting it is a validation error, not a permission one.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	if !h.canManage(r, p) {
		httpapi.Error(w, http.StatusForbidden, "only the project owner or an admin can delete this project")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Projects.Delete(ctx, p.ID)
	if err != nil {
		if errors.Is(err, projectstore.ErrGeneralProject) {
			httpapi.ValidationError(w, err.Error())
			return
		}
		httpapi.StoreError(w, h.Log, "delete project", err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "not found")
		return
	}

	if _, _, userID, ok := authz.UserCtx(r); ok {
		h.pushSuccess(userID, "Project \""+p.Name+"\" deleted")
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberRequest struct {
	UserID string `json:"user_id"`
}

// HandleAddMember adds a user to the project's member list.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	if !h.canManage(r, p) {
		httpapi.Error(w, http.StatusForbidden, "only the project owner or an admin can manage members")
		return
	}

	var req memberRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpapi.ValidationError(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Projects.AddMember(ctx, p.ID, memberID); err != nil {
		httpapi.StoreError(w, h.Log, "add project member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember drops a user from the project's member list.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	if !h.canManage(r, p) {
		httpapi.Error(w, http.StatusForbidden, "only the project owner or an admin can manage members")
		return
	}

	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Projects.RemoveMember(ctx, p.ID, memberID); err != nil {
		httpapi.StoreError(w, h.Log, "remove project member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeTasks returns the project's tasks, for the project detail view.
func (h *Handler) ServeTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	if !h.canView(r, p) {
		httpapi.Error(w, http.StatusForbidden, "you do not have access to this project")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Tasks.ListByProject(ctx, p.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list project tasks", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"tasks": list})
}

// loadProject parses the projectID route param and fetches the project,
// writing the error response itself when either step fails.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid project id")
		return models.Project{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load project", err)
		return models.Project{}, false
	}
	return p, true
}

func (h *Handler) canView(r *http.Request, p models.Project) bool {
	if authz.IsAdmin(r) {
		return true
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.MemberIDs {
		if m == userID {
			return true
		}
	}
	return false
}

func (h *Handler) canManage(r *http.Request, p models.Project) bool {
	if authz.IsAdmin(r) {
		return true
	}
	_, _, userID, ok := authz.UserCtx(r)
	return ok && p.OwnerID == userID
}

func (h *Handler) pushSuccess(userID primitive.ObjectID, msg string) {
	if h.Notify != nil {
		h.Notify.Push(userID.Hex(), notify.Success, msg)
	}
}

func (h *Handler) pushError(userID primitive.ObjectID, msg string) {
	if h.Notify != nil {
		h.Notify.Push(userID.Hex(), notify.Error, msg)
	}
}
