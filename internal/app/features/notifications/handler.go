// internal/app/features/notifications/handler.go
package notifications

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
)

// Handler exposes the per-user toast queue. Reading drains: a notification is
// delivered once and disappears.
type Handler struct {
	Queue *notify.Queue
	Log   *zap.Logger
}

func NewHandler(q *notify.Queue, logger *zap.Logger) *Handler {
	return &Handler{Queue: q, Log: logger}
}

// ServeDrain pops and returns the caller's pending notifications.
func (h *Handler) ServeDrain(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	list := h.Queue.Drain(userID.Hex())
	if list == nil {
		list = []notify.Notification{}
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// ServePeek returns pending notifications without consuming them, for badge
// counts.
func (h *Handler) ServePeek(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	list := h.Queue.Peek(userID.Hex())
	if list == nil {
		list = []notify.Notification{}
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"notifications": list})
}
