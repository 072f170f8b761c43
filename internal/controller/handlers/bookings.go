package handlers

import (
	"net/http"

	"srcbook/internal/controller/middleware"
	"srcbook/pkg/api"
)

// Book handles POST /book/{run}, claiming the run for the authenticated caller.
func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusBadRequest)
		return
	}

	if err := h.svc.Book(r.Context(), r.PathValue("run"), identity); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unbook handles DELETE /book/{run}, releasing the caller's claim.
func (h *Handlers) Unbook(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusBadRequest)
		return
	}

	if err := h.svc.Unbook(r.Context(), r.PathValue("run"), identity); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BookAs handles POST /book/{run}/{user}. The path names the claimant and is
// not verified, so it is only routed when claims need no authentication.
func (h *Handlers) BookAs(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Book(r.Context(), r.PathValue("run"), r.PathValue("user")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Auth handles GET /auth, echoing the identity resolved from the credentials.
func (h *Handlers) Auth(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusBadRequest)
		return
	}
	h.respondJson(w, http.StatusOK, api.AuthResponse{Username: identity})
}
