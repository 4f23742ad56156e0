// internal/app/features/events/registrations.go
package events

import (
	"context"
	"errors"
	"net/http"

	registrationstore "github.com/dalemusser/eventhub/internal/app/store/registrations"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// HandleRegister registers the caller for the event. Free events confirm
// immediately; paid ones start as pending_payment until the payment is
// reported. Registering twice is a conflict, not a second record.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if e.Status != status.EventPublished {
		httpapi.ValidationError(w, "registration is only open for published events")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if e.Capacity > 0 {
		n, err := h.Registrations.CountByEvent(ctx, e.ID)
		if err != nil {
			httpapi.StoreError(w, h.Log, "count registrations", err)
			return
		}
		if n >= int64(e.Capacity) {
			httpapi.Error(w, http.StatusConflict, "event is full")
			return
		}
	}

	regStatus := status.RegConfirmed
	if e.PriceType == status.PricePaid {
		regStatus = status.RegPendingPayment
	}

	reg, err := h.Registrations.Create(ctx, models.Registration{
		EventID: e.ID,
		UserID:  userID,
		Status:  regStatus,
	})
	if err != nil {
		if errors.Is(err, registrationstore.ErrAlreadyRegistered) {
			httpapi.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.push(userID, notify.Error, "Could not register for \""+e.Title+"\"")
		httpapi.StoreError(w, h.Log, "create registration", err)
		return
	}

	if regStatus == status.RegConfirmed {
		h.push(userID, notify.Success, "You are registered for \""+e.Title+"\"")
	} else {
		h.push(userID, notify.Info, "Registration for \""+e.Title+"\" is awaiting payment")
	}
	httpapi.JSON(w, http.StatusCreated, reg)
}

type confirmRequest struct {
	Amount float64 `json:"amount_usdt"`
}

// HandleConfirmRegistration marks the caller's pending registration as paid.
func (h *Handler) HandleConfirmRegistration(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		httpapi.ValidationError(w, "payment amount must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Registrations.Confirm(ctx, e.ID, userID, req.Amount); err != nil {
		httpapi.StoreError(w, h.Log, "confirm registration", err)
		return
	}

	h.push(userID, notify.Success, "Payment recorded for \""+e.Title+"\"")
	reg, err := h.Registrations.Get(ctx, e.ID, userID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload registration", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, reg)
}

// HandleCancelRegistration withdraws the caller's registration.
func (h *Handler) HandleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Registrations.Cancel(ctx, e.ID, userID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "cancel registration", err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "you are not registered for this event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeRegistrations lists an event's registrations for organizers.
func (h *Handler) ServeRegistrations(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !authz.CanManageEvents(r) {
		httpapi.Error(w, http.StatusForbidden, "only organizers and admins can view registrations")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Registrations.ListByEvent(ctx, e.ID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list registrations", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"registrations": list})
}

// ServeMyRegistrations lists the caller's registrations across all events.
func (h *Handler) ServeMyRegistrations(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Registrations.ListByUser(ctx, userID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list registrations", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"registrations": list})
}
