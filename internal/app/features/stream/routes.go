// internal/app/features/stream/routes.go
package stream

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/eventhub/internal/app/system/auth"
)

// Routes mounts the SSE stream endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/{collection}", h.ServeStream)
	return r
}
