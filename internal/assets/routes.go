package assets

import "github.com/go-chi/chi/v5"

// MountRoutes attaches asset endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/dispose", h.Dispose)
	r.Post("/{id}/sell", h.Sell)
	r.Post("/{id}/scrap", h.Scrap)
}
