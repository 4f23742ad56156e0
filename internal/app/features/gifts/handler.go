// internal/app/features/gifts/handler.go
package gifts

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	giftstore "github.com/dalemusser/eventhub/internal/app/store/gifts"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/paging"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// Handler manages gift inventory and delivery receipts. All operations are
// for organizers and admins; participants see their own received gifts.
type Handler struct {
	Gifts *giftstore.Store
	Log   *zap.Logger
}

func NewHandler(gs *giftstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Gifts: gs, Log: logger}
}

type listResponse struct {
	Gifts []models.Gift `json:"gifts"`
	Meta  paging.Meta   `json:"meta"`
}

// ServeList returns the gift inventory ordered by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	win := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Gifts.List(ctx, win.Limit, win.Offset)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list gifts", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, listResponse{Gifts: list, Meta: paging.MetaFor(win, len(list))})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url"`
	Quantity    int    `json:"quantity"`
}

// HandleCreate adds a gift to the inventory.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can manage gifts")
		return
	}

	var req createRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	if req.Quantity < 0 {
		httpapi.ValidationError(w, "quantity cannot be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Gifts.Create(ctx, models.Gift{
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Quantity:    req.Quantity,
	})
	if err != nil {
		httpapi.ValidationError(w, err.Error())
		return
	}
	httpapi.JSON(w, http.StatusCreated, g)
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PhotoURL    *string `json:"photo_url"`
	Quantity    *int    `json:"quantity"`
}

// HandleUpdate edits gift fields, including restocking via quantity.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGift(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can manage gifts")
		return
	}

	var req updateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		httpapi.ValidationError(w, "quantity cannot be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	upd := giftstore.Update{
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Quantity:    req.Quantity,
	}
	if err := h.Gifts.UpdateInfo(ctx, g.ID, upd); err != nil {
		httpapi.ValidationError(w, err.Error())
		return
	}

	updated, err := h.Gifts.GetByID(ctx, g.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload gift", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a gift from the inventory.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGift(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can manage gifts")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Gifts.Delete(ctx, g.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "delete gift", err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deliveryRequest struct {
	UserID  string     `json:"user_id"`
	EventID string     `json:"event_id"`
	Note    string     `json:"note"`
	At      *time.Time `json:"delivered_at"`
}

// HandleRecordDelivery hands a gift to a user at an event. Stock is
// decremented with a guarded update, so delivering the last unit twice fails
// rather than going negative.
func (h *Handler) HandleRecordDelivery(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGift(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can record deliveries")
		return
	}

	var req deliveryRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpapi.ValidationError(w, "invalid user id")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		httpapi.ValidationError(w, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d := models.GiftDelivery{
		GiftID:  g.ID,
		UserID:  userID,
		EventID: eventID,
		Note:    req.Note,
	}
	if req.At != nil {
		d.DeliveredAt = *req.At
	}
	created, err := h.Gifts.RecordDelivery(ctx, d)
	if err != nil {
		if errors.Is(err, giftstore.ErrOutOfStock) {
			httpapi.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpapi.StoreError(w, h.Log, "record gift delivery", err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, created)
}

// ServeEventDeliveries lists the receipts for one event.
func (h *Handler) ServeEventDeliveries(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can view deliveries")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Gifts.ListDeliveriesByEvent(ctx, eventID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list deliveries", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"deliveries": list})
}

// ServeMyDeliveries lists the gifts the caller has received.
func (h *Handler) ServeMyDeliveries(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Gifts.ListDeliveriesByUser(ctx, userID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list deliveries", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"deliveries": list})
}

func (h *Handler) loadGift(w http.ResponseWriter, r *http.Request) (models.Gift, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "giftID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid gift id")
		return models.Gift{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Gifts.GetByID(ctx, id)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load gift", err)
		return models.Gift{}, false
	}
	return g, true
}
