package invoices

import "github.com/go-chi/chi/v5"

// MountRoutes attaches invoice endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/post", h.Post)
	r.Post("/{id}/cancel", h.Cancel)
}
