package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DefaultRunLimit is how many runs GET /api/runs returns without ?limit
const DefaultRunLimit = 20

// ==================== Runs & Stats ====================

func (h *Handlers) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntQuery(r, "limit", DefaultRunLimit)
	if err != nil {
		respondError(w, err)
		return
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, runs)
}

func (h *Handlers) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, run)
}

func (h *Handlers) handleListFailures(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetRun(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	failures, err := h.Store.ListFailures(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, failures)
}

func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats)
}

// ==================== Pages ====================

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		respondError(w, ErrNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.templates.Index.Execute(w, h.Page)
}
