// internal/app/features/team/routes.go
package team

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/eventhub/internal/app/system/auth"
)

// Routes mounts the user-administration endpoints. The whole subrouter is
// admin-gated; handlers can assume an admin caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole("admin"))
	r.Get("/", h.ServeList)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", h.ServeUser)
		r.Put("/role", h.HandleSetRole)
		r.Put("/status", h.HandleSetStatus)
		r.Delete("/", h.HandleDelete)
	})
	return r
}
