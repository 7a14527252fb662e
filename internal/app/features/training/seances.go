// internal/app/features/training/seances.go
package training

import (
	"net/http"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/lifecycle"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) seanceAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "seance availability")
	defer cancel()

	av, err := h.Flow.SeanceAvailability(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

func (h *Handler) fireSeance(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ev := lifecycle.Event(chi.URLParam(r, "event"))
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Transition(), h.Log, "seance "+string(ev))
	defer cancel()

	if err := h.Flow.FireSeance(ctx, id, ev); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) copySeance(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "seance copy")
	defer cancel()

	se, err := h.Flow.CopySeance(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, se)
}

func (h *Handler) deleteSeance(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Transition(), h.Log, "seance delete")
	defer cancel()

	if err := h.Flow.DeleteSeance(ctx, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// attach handles POST /subscription-lines/{id}/attach.
func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Transition(), h.Log, "attach")
	defer cancel()

	ps, err := h.Flow.Attach(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ps == nil {
		ps = []models.Participation{}
	}
	writeJSON(w, http.StatusOK, ps)
}

// openSeances handles GET /offers/{id}/open-seances?from=YYYY-MM-DD.
// Without from, the engine's clock decides.
func (h *Handler) openSeances(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	var from time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			badRequest(w, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "open seances")
	defer cancel()

	seances, err := h.Flow.OpenSeancesForOffer(ctx, id, from)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seances)
}
