package controller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"srcbook/internal/auth"
	"srcbook/internal/store"
)

// claimsService keeps claims in a map and enforces ownership like the real service.
type claimsService struct {
	mu     sync.Mutex
	claims map[string]string
}

func (c *claimsService) Book(ctx context.Context, runID, identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if identity == "nobody" {
		delete(c.claims, runID)
		return nil
	}
	c.claims[runID] = identity
	return nil
}

func (c *claimsService) Unbook(ctx context.Context, runID, actor string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claims[runID] != actor {
		return fmt.Errorf("release %s: %w", runID, store.ErrNotOwner)
	}
	delete(c.claims, runID)
	return nil
}

func (c *claimsService) Pending(ctx context.Context) (map[string][]store.PendingRun, error) {
	return map[string][]store.PendingRun{}, nil
}
func (c *claimsService) PendingFlat(ctx context.Context) ([]store.PendingRun, error) {
	return []store.PendingRun{}, nil
}
func (c *claimsService) Cached(ctx context.Context) ([]store.PendingRun, error)  { return nil, nil }
func (c *claimsService) Deleted(ctx context.Context) ([]store.PendingRun, error) { return nil, nil }
func (c *claimsService) SoftDelete(ctx context.Context, runID string) error      { return nil }
func (c *claimsService) Restore(ctx context.Context, runID string) error         { return nil }
func (c *claimsService) Refresh(ctx context.Context) (int, error)                { return 0, nil }
func (c *claimsService) Cleanup(ctx context.Context) ([]string, error)           { return nil, nil }
func (c *claimsService) Moderators(ctx context.Context, gameID string) ([]string, error) {
	return nil, nil
}
func (c *claimsService) Games() map[string]string       { return map[string]string{} }
func (c *claimsService) Ping(ctx context.Context) error { return nil }

// headerResolver treats X-API-Key as the moderator name.
type headerResolver struct{}

func (headerResolver) Resolve(ctx context.Context, r *http.Request) (string, error) {
	if name := r.Header.Get(auth.APIKeyHeader); name != "" {
		return name, nil
	}
	return "", auth.ErrUnauthenticated
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *claimsService) {
	t.Helper()
	svc := &claimsService{claims: map[string]string{}}
	if opts.RateLimit == 0 {
		opts.RateLimit, opts.RateBurst = 1000, 1000
	}
	srv := httptest.NewServer(NewHandler(svc, svc, headerResolver{}, opts))
	t.Cleanup(srv.Close)
	return srv, svc
}

func do(t *testing.T, method, url, key string) int {
	t.Helper()
	req, _ := http.NewRequest(method, url, nil)
	if key != "" {
		req.Header.Set(auth.APIKeyHeader, key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestServer_OwnershipFlow(t *testing.T) {
	srv, svc := newTestServer(t, Options{AuthenticatedClaims: true})

	if code := do(t, http.MethodPost, srv.URL+"/book/r1", "alice"); code != http.StatusNoContent {
		t.Fatalf("alice book: got %d", code)
	}
	if code := do(t, http.MethodDelete, srv.URL+"/book/r1", "bob"); code != http.StatusConflict {
		t.Errorf("bob unbook: got %d, want 409", code)
	}
	if svc.claims["r1"] != "alice" {
		t.Errorf("claim changed to %q", svc.claims["r1"])
	}
	if code := do(t, http.MethodDelete, srv.URL+"/book/r1", "alice"); code != http.StatusNoContent {
		t.Errorf("alice unbook: got %d", code)
	}
	if code := do(t, http.MethodPost, srv.URL+"/book/r1", ""); code != http.StatusBadRequest {
		t.Errorf("anonymous book: got %d, want 400", code)
	}
}

func TestServer_UnauthenticatedClaimsRoute(t *testing.T) {
	srv, _ := newTestServer(t, Options{AuthenticatedClaims: true})
	if code := do(t, http.MethodPost, srv.URL+"/book/r1/alice", ""); code != http.StatusNotFound {
		t.Errorf("route should be hidden, got %d", code)
	}

	srv, svc := newTestServer(t, Options{AuthenticatedClaims: false})
	if code := do(t, http.MethodPost, srv.URL+"/book/r1/alice", ""); code != http.StatusNoContent {
		t.Fatalf("book as alice: got %d", code)
	}
	if svc.claims["r1"] != "alice" {
		t.Fatalf("expected alice claim, got %q", svc.claims["r1"])
	}
	if code := do(t, http.MethodPost, srv.URL+"/book/r1/nobody", ""); code != http.StatusNoContent {
		t.Fatalf("book as nobody: got %d", code)
	}
	if _, ok := svc.claims["r1"]; ok {
		t.Error("expected nobody to release the claim")
	}
}

func TestServer_MetricsAndProbes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("srcbook_bookings_active 0\n"))
	})
	srv, _ := newTestServer(t, Options{Metrics: metrics})

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/pending", "/games"} {
		if code := do(t, http.MethodGet, srv.URL+path, ""); code != http.StatusOK {
			t.Errorf("GET %s: got %d", path, code)
		}
	}
}

func TestServer_RateLimited(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimit: 1, RateBurst: 1})

	do(t, http.MethodGet, srv.URL+"/healthz", "")
	if code := do(t, http.MethodGet, srv.URL+"/healthz", ""); code != http.StatusTooManyRequests {
		t.Errorf("got %d, want 429", code)
	}
}
