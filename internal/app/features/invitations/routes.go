// internal/app/features/invitations/routes.go
package invitations

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Token routes are public: the token itself is the credential.
	r.Get("/{token}", h.ServeInvitation)
	r.Post("/{token}/decline", h.HandleDecline)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.HandleCreate)
		r.Post("/bulk", h.HandleBulkCreate)
		r.Post("/{token}/accept", h.HandleAccept)
		r.Get("/project/{projectID}", h.ServeProjectInvitations)
	})

	return r
}
