// Package handlers contains HTTP handlers for the srcbook API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"srcbook/internal/auth"
	"srcbook/internal/booking"
	"srcbook/internal/logger"
	"srcbook/internal/store"
	"srcbook/pkg/api"
)

// BookingService is the subset of booking.Service the handlers call.
type BookingService interface {
	Book(ctx context.Context, runID, identity string) error
	Unbook(ctx context.Context, runID, actor string) error
	Pending(ctx context.Context) (map[string][]store.PendingRun, error)
	PendingFlat(ctx context.Context) ([]store.PendingRun, error)
	Cached(ctx context.Context) ([]store.PendingRun, error)
	Deleted(ctx context.Context) ([]store.PendingRun, error)
	SoftDelete(ctx context.Context, runID string) error
	Restore(ctx context.Context, runID string) error
	Refresh(ctx context.Context) (int, error)
	Cleanup(ctx context.Context) ([]string, error)
	Moderators(ctx context.Context, gameID string) ([]string, error)
	Games() map[string]string
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	svc    BookingService
	db     Pinger
	logger *slog.Logger
}

// New creates a new Handlers instance.
func New(svc BookingService, db Pinger, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, db: db, logger: logger}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{Err: message})
}

// fail maps err to a status code and writes it. Upstream, decode and store
// failures all land on 500 and are logged.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), h.logger).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.httpError(w, err.Error(), code)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotOwner):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidArgument), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
