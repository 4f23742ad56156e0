// internal/app/features/gifts/routes.go
package gifts

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/my/deliveries", h.ServeMyDeliveries)
	r.Get("/deliveries/event/{eventID}", h.ServeEventDeliveries)

	r.Route("/{giftID}", func(r chi.Router) {
		r.Put("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)
		r.Post("/deliveries", h.HandleRecordDelivery)
	})

	return r
}
