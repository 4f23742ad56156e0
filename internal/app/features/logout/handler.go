// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventhub/internal/app/store/sessions"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Sessions   *sessions.Store
}

func NewHandler(sessionMgr *auth.SessionManager, sessStore *sessions.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Sessions:   sessStore,
	}
}

// ServeLogout handles POST /auth/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: clear session", zap.Error(err))
	}

	// Close the newest open activity session for the audit trail. Bearer-only
	// clients simply let their token expire; this covers the cookie path.
	if h.Sessions != nil && u != nil {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			defer cancel()

			recent, err := h.Sessions.RecentByUser(ctx, oid, 5)
			if err != nil {
				h.Log.Warn("logout: load activity sessions", zap.Error(err))
			} else {
				for _, s := range recent {
					if s.LogoutAt == nil {
						if err := h.Sessions.Close(ctx, s.ID, sessions.EndedByLogout); err != nil {
							h.Log.Warn("logout: close activity session", zap.Error(err))
						}
						break
					}
				}
			}
		}
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}

	w.WriteHeader(http.StatusNoContent)
}
