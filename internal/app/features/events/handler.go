// internal/app/features/events/handler.go
package events

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	eventstore "github.com/dalemusser/eventhub/internal/app/store/events"
	registrationstore "github.com/dalemusser/eventhub/internal/app/store/registrations"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/app/system/paging"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// Handler serves event CRUD, agenda management, speaker assignment and
// registrations. Published events are publicly listable; drafts and all
// mutations are reserved for organizers and admins.
type Handler struct {
	Events        *eventstore.Store
	Registrations *registrationstore.Store
	Speakers      *speakerstore.Store
	Notify        *notify.Queue
	Log           *zap.Logger
}

func NewHandler(es *eventstore.Store, rs *registrationstore.Store, ss *speakerstore.Store, nq *notify.Queue, logger *zap.Logger) *Handler {
	return &Handler{
		Events:        es,
		Registrations: rs,
		Speakers:      ss,
		Notify:        nq,
		Log:           logger,
	}
}

type listResponse struct {
	Events []models.Event `json:"events"`
	Meta   paging.Meta    `json:"meta"`
}

// ServeList returns events, soonest first. Organizers and admins see drafts
// and cancelled events too; everyone else gets the published list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	win := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.Event
		err  error
	)
	if authz.CanManageEvents(r) {
		list, err = h.Events.ListAll(ctx, win.Limit, win.Offset)
	} else {
		list, err = h.Events.ListPublished(ctx, win.Limit, win.Offset)
	}
	if err != nil {
		httpapi.StoreError(w, h.Log, "list events", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, listResponse{Events: list, Meta: paging.MetaFor(win, len(list))})
}

type createRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Venue         string    `json:"venue"`
	Address       string    `json:"address"`
	Capacity      int       `json:"capacity"`
	PriceType     string    `json:"price_type"`
	PriceUSDT     float64   `json:"price_usdt"`
	WalletAddress string    `json:"wallet_address"`
	CoverURL      string    `json:"cover_url"`
}

// HandleCreate creates an event owned by the caller.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can create events")
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	var req createRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	if !req.EndsAt.IsZero() && !req.EndsAt.After(req.StartsAt) {
		httpapi.ValidationError(w, "event must end after it starts")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.Events.Create(ctx, models.Event{
		Title:         req.Title,
		Description:   htmlsanitize.Sanitize(req.Description),
		Status:        req.Status,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Venue:         req.Venue,
		Address:       req.Address,
		Capacity:      req.Capacity,
		PriceType:     req.PriceType,
		PriceUSDT:     req.PriceUSDT,
		WalletAddress: req.WalletAddress,
		CoverURL:      req.CoverURL,
		OwnerID:       userID,
	})
	if err != nil {
		httpapi.ValidationError(w, err.Error())
		return
	}

	h.push(userID, notify.Success, "Event \""+e.Title+"\" created")
	httpapi.JSON(w, http.StatusCreated, e)
}

// ServeEvent returns one event. Unpublished events are visible only to
// organizers and admins.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if e.Status != status.EventPublished && !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusNotFound, "not found")
		return
	}
	httpapi.JSON(w, http.StatusOK, e)
}

type updateRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	Venue         *string    `json:"venue"`
	Address       *string    `json:"address"`
	Capacity      *int       `json:"capacity"`
	PriceType     *string    `json:"price_type"`
	PriceUSDT     *float64   `json:"price_usdt"`
	WalletAddress *string    `json:"wallet_address"`
	CoverURL      *string    `json:"cover_url"`
}

// HandleUpdate edits event fields.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can edit events")
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

	upd := eventstore.Update{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Venue:         req.Venue,
		Address:       req.Address,
		Capacity:      req.Capacity,
		PriceType:     req.PriceType,
		PriceUSDT:     req.PriceUSDT,
		WalletAddress: req.WalletAddress,
		CoverURL:      req.CoverURL,
	}
	if err := h.Events.UpdateInfo(ctx, e.ID, upd); err != nil {
		httpapi.ValidationError(w, err.Error())
		return
	}

	updated, err := h.Events.GetByID(ctx, e.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload event", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes an event.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can delete events")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Events.Delete(ctx, e.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "delete event", err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "not found")
		return
	}
	if _, _, userID, ok := authz.UserCtx(r); ok {
		h.push(userID, notify.Success, "Event \""+e.Title+"\" deleted")
	}
	w.WriteHeader(http.StatusNoContent)
}

type speakerRequest struct {
	SpeakerID string `json:"speaker_id"`
}

// HandleAddSpeaker assigns a speaker to the event.
func (h *Handler) HandleAddSpeaker(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can manage speakers")
		return
	}

	var req speakerRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	speakerID, err := primitive.ObjectIDFromHex(req.SpeakerID)
	if err != nil {
		httpapi.ValidationError(w, "invalid speaker id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The speaker must exist; a dangling id would render as a hole in the
	// event page.
	if _, err := h.Speakers.GetByID(ctx, speakerID); err != nil {
		httpapi.StoreError(w, h.Log, "load speaker", err)
		return
	}
	if err := h.Events.AddSpeaker(ctx, e.ID, speakerID); err != nil {
		httpapi.StoreError(w, h.Log, "add event speaker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveSpeaker unassigns a speaker from the event.
func (h *Handler) HandleRemoveSpeaker(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can manage speakers")
		return
	}

	speakerID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "speakerID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid speaker id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Events.RemoveSpeaker(ctx, e.ID, speakerID); err != nil {
		httpapi.StoreError(w, h.Log, "remove event speaker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadEvent(w http.ResponseWriter, r *http.Request) (models.Event, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid event id")
		return models.Event{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load event", err)
		return models.Event{}, false
	}
	return e, true
}

func (h *Handler) push(userID primitive.ObjectID, severity, msg string) {
	if h.Notify != nil {
		h.Notify.Push(userID.Hex(), severity, msg)
	}
}
