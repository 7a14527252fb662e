// internal/app/features/training/routes.go
package training

import "github.com/go-chi/chi/v5"

// Routes returns the operations API router, mounted under /api.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/availability", h.sessionAvailability)
		r.Post("/events/{event}", h.fireSession)
		r.Post("/copy", h.copySession)
		r.Delete("/", h.deleteSession)
	})

	r.Route("/seances/{id}", func(r chi.Router) {
		r.Get("/availability", h.seanceAvailability)
		r.Post("/events/{event}", h.fireSeance)
		r.Post("/copy", h.copySeance)
		r.Delete("/", h.deleteSeance)
	})

	r.Post("/subscription-lines/{id}/attach", h.attach)
	r.Get("/offers/{id}/open-seances", h.openSeances)

	return r
}
