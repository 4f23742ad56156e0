// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Put("/", h.HandleUpdate)
	r.Post("/password", h.HandleChangePassword)
	r.Post("/photo", h.HandlePhotoUpload)
	return r
}
