// internal/app/features/training/sessions.go
package training

import (
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/system/lifecycle"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// sessionAvailability handles GET /sessions/{id}/availability.
func (h *Handler) sessionAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "session availability")
	defer cancel()

	av, err := h.Flow.SessionAvailability(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

// fireSession handles POST /sessions/{id}/events/{event}. An event name the
// session table does not know is answered with 405.
func (h *Handler) fireSession(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ev := lifecycle.Event(chi.URLParam(r, "event"))
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Transition(), h.Log, "session "+string(ev))
	defer cancel()

	if err := h.Flow.FireSession(ctx, id, ev); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) copySession(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	s, err := h.Flow.CopySession(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Transition(), h.Log, "session delete")
	defer cancel()

	if err := h.Flow.DeleteSession(ctx, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
