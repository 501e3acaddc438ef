package depreciation

import "github.com/go-chi/chi/v5"

// MountRoutes attaches depreciation endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/calculate", h.Calculate)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/post", h.Post)
	r.Delete("/{id}", h.Delete)
}
