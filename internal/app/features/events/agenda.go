// internal/app/features/events/agenda.go
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	eventstore "github.com/dalemusser/eventhub/internal/app/store/events"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

type agendaItemRequest struct {
	StartsAt    time.Time `json:"starts_at"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SpeakerID   string    `json:"speaker_id"`
}

func (req agendaItemRequest) toItem(w http.ResponseWriter) (models.AgendaItem, bool) {
	if req.Title == "" {
		httpapi.ValidationError(w, "agenda item title is required")
		return models.AgendaItem{}, false
	}
	item := models.AgendaItem{
		StartsAt:    req.StartsAt,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.SpeakerID != "" {
		id, err := primitive.ObjectIDFromHex(req.SpeakerID)
		if err != nil {
			httpapi.ValidationError(w, "invalid speaker id")
			return models.AgendaItem{}, false
		}
		item.SpeakerID = &id
	}
	return item, true
}

// HandleAddAgendaItem appends a slot to the event's agenda.
func (h *Handler) HandleAddAgendaItem(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can edit the agenda")
		return
	}

	var req agendaItemRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	item, ok := req.toItem(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Events.AddAgendaItem(ctx, e.ID, item)
	if err != nil {
		httpapi.StoreError(w, h.Log, "add agenda item", err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, created)
}

// HandleUpdateAgendaItem replaces one agenda slot in place.
func (h *Handler) HandleUpdateAgendaItem(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can edit the agenda")
		return
	}

	itemID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "itemID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid agenda item id")
		return
	}

	var req agendaItemRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	item, ok := req.toItem(w)
	if !ok {
		return
	}
	item.ID = itemID

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Events.UpdateAgendaItem(ctx, e.ID, item); err != nil {
		if errors.Is(err, eventstore.ErrAgendaItemNotFound) {
			httpapi.Error(w, http.StatusNotFound, err.Error())
			return
		}
		httpapi.StoreError(w, h.Log, "update agenda item", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, item)
}

// HandleRemoveAgendaItem deletes one agenda slot.
func (h *Handler) HandleRemoveAgendaItem(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can edit the agenda")
		return
	}

	itemID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "itemID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid agenda item id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Events.RemoveAgendaItem(ctx, e.ID, itemID); err != nil {
		if errors.Is(err, eventstore.ErrAgendaItemNotFound) {
			httpapi.Error(w, http.StatusNotFound, err.Error())
			return
		}
		httpapi.StoreError(w, h.Log, "remove agenda item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
