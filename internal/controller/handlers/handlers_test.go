package handlers

import (
	"context"

	"srcbook/internal/store"
)

// Mock booking service
type mockService struct {
	// Hooks
	bookErr     error
	unbookErr   error
	pendingResp map[string][]store.PendingRun
	pendingErr  error
	flatResp    []store.PendingRun
	cachedResp  []store.PendingRun
	deletedResp []store.PendingRun
	listErr     error
	softErr     error
	refreshErr  error
	cleanupResp []string
	cleanupErr  error
	modsResp    []string
	modsErr     error
	gamesResp   map[string]string
	pingErr     error

	// Spies (to verify arguments passed by handlers)
	capturedRunID    string
	capturedIdentity string
	capturedGame     string
	refreshCalls     int
}

func (m *mockService) Book(ctx context.Context, runID, identity string) error {
	m.capturedRunID = runID
	m.capturedIdentity = identity
	return m.bookErr
}

func (m *mockService) Unbook(ctx context.Context, runID, actor string) error {
	m.capturedRunID = runID
	m.capturedIdentity = actor
	return m.unbookErr
}

func (m *mockService) Pending(ctx context.Context) (map[string][]store.PendingRun, error) {
	return m.pendingResp, m.pendingErr
}

func (m *mockService) PendingFlat(ctx context.Context) ([]store.PendingRun, error) {
	return m.flatResp, m.pendingErr
}

func (m *mockService) Cached(ctx context.Context) ([]store.PendingRun, error) {
	return m.cachedResp, m.listErr
}

func (m *mockService) Deleted(ctx context.Context) ([]store.PendingRun, error) {
	return m.deletedResp, m.listErr
}

func (m *mockService) SoftDelete(ctx context.Context, runID string) error {
	m.capturedRunID = runID
	return m.softErr
}

func (m *mockService) Restore(ctx context.Context, runID string) error {
	m.capturedRunID = runID
	return m.softErr
}

func (m *mockService) Refresh(ctx context.Context) (int, error) {
	m.refreshCalls++
	return 2, m.refreshErr
}

func (m *mockService) Cleanup(ctx context.Context) ([]string, error) {
	return m.cleanupResp, m.cleanupErr
}

func (m *mockService) Moderators(ctx context.Context, gameID string) ([]string, error) {
	m.capturedGame = gameID
	return m.modsResp, m.modsErr
}

func (m *mockService) Games() map[string]string {
	return m.gamesResp
}

func (m *mockService) Ping(ctx context.Context) error {
	return m.pingErr
}

func newTestHandlers(m *mockService) *Handlers {
	return New(m, m, nil)
}
