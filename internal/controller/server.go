// Package controller wires the srcbook HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"srcbook/internal/auth"
	"srcbook/internal/controller/handlers"
	"srcbook/internal/controller/middleware"
)

// Options configures routing and the middleware chain.
type Options struct {
	// AuthenticatedClaims hides POST /book/{run}/{user}, whose path names an
	// unverified claimant.
	AuthenticatedClaims bool

	RateLimit float64
	RateBurst int

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	Logger *slog.Logger
}

// Server is the HTTP server for the srcbook API.
type Server struct {
	httpServer *http.Server
}

// New creates a new server.
func New(addr string, svc handlers.BookingService, db handlers.Pinger, resolver auth.Resolver, opts Options) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewHandler(svc, db, resolver, opts),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(svc handlers.BookingService, db handlers.Pinger, resolver auth.Resolver, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := handlers.New(svc, db, opts.Logger)
	authMW := middleware.RequireIdentity(resolver)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	// Read paths
	mux.HandleFunc("GET /pending", h.Pending)
	mux.HandleFunc("GET /pending/flat", h.PendingFlat)
	mux.HandleFunc("GET /cached", h.Cached)
	mux.HandleFunc("GET /deleted", h.Deleted)
	mux.HandleFunc("GET /mods", h.Moderators)
	mux.HandleFunc("GET /games", h.Games)

	// Cache maintenance
	mux.HandleFunc("GET /fetch", h.Fetch)
	mux.HandleFunc("POST /cleanup", h.Cleanup)
	mux.HandleFunc("POST /run/{run}", h.Restore)
	mux.HandleFunc("DELETE /run/{run}", h.SoftDelete)

	// Bookings
	mux.Handle("GET /auth", authMW(http.HandlerFunc(h.Auth)))
	mux.Handle("POST /book/{run}", authMW(http.HandlerFunc(h.Book)))
	mux.Handle("DELETE /book/{run}", authMW(http.HandlerFunc(h.Unbook)))
	if !opts.AuthenticatedClaims {
		mux.HandleFunc("POST /book/{run}/{user}", h.BookAs)
	}

	limiter := middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst)

	var handler http.Handler = mux
	handler = limiter.Middleware()(handler)
	handler = middleware.CORS(handler)
	handler = middleware.RequestID(opts.Logger)(handler)
	return handler
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
