// internal/app/features/speakers/handler.go
package speakers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/paging"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// Handler manages the speaker roster. Listing is public so event pages can
// render speaker cards; mutations are for organizers and admins.
type Handler struct {
	Speakers *speakerstore.Store
	Log      *zap.Logger
}

func NewHandler(ss *speakerstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Speakers: ss, Log: logger}
}

type listResponse struct {
	Speakers []models.Speaker `json:"speakers"`
	Meta     paging.Meta      `json:"meta"`
}

// ServeList returns speakers ordered by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	win := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Speakers.List(ctx, win.Limit, win.Offset)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list speakers", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, listResponse{Speakers: list, Meta: paging.MetaFor(win, len(list))})
}

type createRequest struct {
	FullName  string             `json:"full_name"`
	Email     string             `json:"email"`
	Expertise string             `json:"expertise"`
	Bio       string             `json:"bio"`
	PhotoURL  string             `json:"photo_url"`
	Social    models.SocialLinks `json:"social"`
}

// HandleCreate invites a speaker. The email is the link key: if someone later
// signs up with it, the speaker record is attached to their account.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can add speakers")
		return
	}

	var req createRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sp, err := h.Speakers.Create(ctx, models.Speaker{
		FullName:  req.FullName,
		Email:     req.Email,
		Expertise: req.Expertise,
		Bio:       htmlsanitize.Sanitize(req.Bio),
		PhotoURL:  req.PhotoURL,
		Social:    req.Social,
	})
	if err != nil {
		if errors.Is(err, speakerstore.ErrDuplicateEmail) {
			httpapi.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpapi.ValidationError(w, err.Error())
		return
	}
	httpapi.JSON(w, http.StatusCreated, sp)
}

// ServeSpeaker returns one speaker.
func (h *Handler) ServeSpeaker(w http.ResponseWriter, r *http.Request) {
	sp, ok := h.loadSpeaker(w, r)
	if !ok {
		return
	}
	httpapi.JSON(w, http.StatusOK, sp)
}

type updateRequest struct {
	FullName  *string             `json:"full_name"`
	Expertise *string             `json:"expertise"`
	Bio       *string             `json:"bio"`
	PhotoURL  *string             `json:"photo_url"`
	Social    *models.SocialLinks `json:"social"`
}

// HandleUpdate edits speaker fields. Email is deliberately immutable: it is
// the account-linking key.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sp, ok := h.loadSpeaker(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can edit speakers")
		return
	}

	var req updateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	if req.Bio != nil {
		clean := htmlsanitize.Sanitize(*req.Bio)
		req.Bio = &clean
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	upd := speakerstore.Update{
		FullName:  req.FullName,
		Expertise: req.Expertise,
		Bio:       req.Bio,
		PhotoURL:  req.PhotoURL,
		Social:    req.Social,
	}
	if err := h.Speakers.UpdateInfo(ctx, sp.ID, upd); err != nil {
		httpapi.ValidationError(w, err.Error())
		return
	}

	updated, err := h.Speakers.GetByID(ctx, sp.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload speaker", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a speaker from the roster.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sp, ok := h.loadSpeaker(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can remove speakers")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Speakers.Delete(ctx, sp.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "delete speaker", err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadSpeaker(w http.ResponseWriter, r *http.Request) (models.Speaker, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "speakerID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid speaker id")
		return models.Speaker{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sp, err := h.Speakers.GetByID(ctx, id)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load speaker", err)
		return models.Speaker{}, false
	}
	return sp, true
}
