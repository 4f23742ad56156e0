// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeDrain)
	r.Get("/peek", h.ServePeek)
	return r
}
