package handlers

import (
	"net/http"

	"srcbook/pkg/api"
)

// Pending handles GET /pending.
// Returns the live pending runs of every tracked game, keyed by game id.
func (h *Handlers) Pending(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.Pending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, runs)
}

// PendingFlat handles GET /pending/flat.
func (h *Handlers) PendingFlat(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.PendingFlat(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, runs)
}

// Cached handles GET /cached.
func (h *Handlers) Cached(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.Cached(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, runs)
}

// Deleted handles GET /deleted.
func (h *Handlers) Deleted(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.Deleted(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, runs)
}

// Fetch handles GET /fetch. Success is an empty 200.
func (h *Handlers) Fetch(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Refresh(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Cleanup handles POST /cleanup.
func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.Cleanup(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	h.respondJson(w, http.StatusOK, api.CleanupResponse{Deleted: deleted})
}

// SoftDelete handles DELETE /run/{run}.
func (h *Handlers) SoftDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SoftDelete(r.Context(), r.PathValue("run")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /run/{run}.
func (h *Handlers) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Restore(r.Context(), r.PathValue("run")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Moderators handles GET /mods?game=.
func (h *Handlers) Moderators(w http.ResponseWriter, r *http.Request) {
	mods, err := h.svc.Moderators(r.Context(), r.URL.Query().Get("game"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if mods == nil {
		mods = []string{}
	}
	h.respondJson(w, http.StatusOK, mods)
}

// Games handles GET /games.
func (h *Handlers) Games(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, api.GamesResponse(h.svc.Games()))
}
