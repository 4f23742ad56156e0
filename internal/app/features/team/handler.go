// internal/app/features/team/handler.go
package team

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/paging"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// Handler is the admin-only user administration surface: list and search
// accounts, change roles and statuses, remove accounts. Routes applies the
// admin gate; handlers assume an admin caller.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(us *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: us, Log: logger}
}

type listResponse struct {
	Users []models.User `json:"users"`
	Meta  paging.Meta   `json:"meta"`
}

// ServeList returns accounts ordered by name. Supports search (name or email
// prefix) plus role and status filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	win := paging.Parse(r)
	q := strings.TrimSpace(r.URL.Query().Get("search"))
	role := r.URL.Query().Get("role")
	stat := r.URL.Query().Get("status")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.Search(ctx, q, role, stat, win.Limit, win.Offset)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list users", err)
		return
	}
	if list == nil {
		list = []models.User{}
	}
	httpapi.JSON(w, http.StatusOK, listResponse{Users: list, Meta: paging.MetaFor(win, len(list))})
}

// ServeUser returns one account.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	httpapi.JSON(w, http.StatusOK, u)
}

type roleRequest struct {
	Role string `json:"role"`
}

// HandleSetRole changes an account's role. Admins cannot change their own
// role, so the system always keeps at least the acting admin.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	if _, _, me, _ := authz.UserCtx(r); me == u.ID {
		httpapi.ValidationError(w, "you cannot change your own role")
		return
	}

	var req roleRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.SetRole(ctx, u.ID, req.Role); err != nil {
		if errors.Is(err, userstore.ErrBadRole) {
			httpapi.ValidationError(w, err.Error())
			return
		}
		httpapi.StoreError(w, h.Log, "set role", err)
		return
	}
	h.reload(w, r, u.ID)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus enables or disables an account. Disabled users fail the
// session gate on their next request.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	if _, _, me, _ := authz.UserCtx(r); me == u.ID {
		httpapi.ValidationError(w, "you cannot change your own status")
		return
	}

	var req statusRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.SetStatus(ctx, u.ID, req.Status); err != nil {
		if errors.Is(err, userstore.ErrBadStatus) {
			httpapi.ValidationError(w, err.Error())
			return
		}
		httpapi.StoreError(w, h.Log, "set status", err)
		return
	}
	h.reload(w, r, u.ID)
}

// HandleDelete removes an account. Self-deletion is rejected for the same
// reason as self-demotion.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	if _, _, me, _ := authz.UserCtx(r); me == u.ID {
		httpapi.ValidationError(w, "you cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Users.Delete(ctx, u.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "delete user", err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload user", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, u)
}

func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid user id")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load user", err)
		return nil, false
	}
	return u, true
}
