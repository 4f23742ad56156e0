// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.ServeTask)
		r.Put("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)
	})

	return r
}
