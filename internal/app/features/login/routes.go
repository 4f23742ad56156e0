// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the password auth endpoints, mounted under /auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.ServeLogin)
	r.Post("/signup", h.ServeSignup)
	r.Get("/me", h.ServeMe)
	return r
}
