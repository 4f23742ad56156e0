// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Listing and event detail are public; everything else needs a session.
	r.Get("/", h.ServeList)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.HandleCreate)
		r.Get("/my/registrations", h.ServeMyRegistrations)
	})

	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", h.ServeEvent)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSignedIn)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)

			r.Post("/agenda", h.HandleAddAgendaItem)
			r.Put("/agenda/{itemID}", h.HandleUpdateAgendaItem)
			r.Delete("/agenda/{itemID}", h.HandleRemoveAgendaItem)

			r.Post("/speakers", h.HandleAddSpeaker)
			r.Delete("/speakers/{speakerID}", h.HandleRemoveSpeaker)

			r.Post("/register", h.HandleRegister)
			r.Post("/register/confirm", h.HandleConfirmRegistration)
			r.Delete("/register", h.HandleCancelRegistration)
			r.Get("/registrations", h.ServeRegistrations)
		})
	})

	return r
}
