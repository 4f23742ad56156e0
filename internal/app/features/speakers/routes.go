// internal/app/features/speakers/routes.go
package speakers

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{speakerID}", h.ServeSpeaker)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.HandleCreate)
		r.Put("/{speakerID}", h.HandleUpdate)
		r.Delete("/{speakerID}", h.HandleDelete)
	})

	return r
}
