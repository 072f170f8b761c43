// Package booking enforces who may claim and release a pending run, and drives
// the fetch-then-reconcile read paths.
//
// A run is either Unclaimed or Claimed(by). Book moves it to Claimed(identity),
// overwriting any previous claimant. Unbook moves Claimed(identity) back to
// Unclaimed and fails with store.ErrNotOwner for anyone else, or when there is
// nothing to release.
//
// Upstream fetches never run while the store is in use: every read path fetches
// first, then makes a single store call.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"srcbook/internal/reconcile"
	"srcbook/internal/srcom"
	"srcbook/internal/store"
)

// Nobody is the identity that turns a Book call into an unconditional release.
const Nobody = "nobody"

// ErrInvalidArgument is returned for empty run ids or identities.
var ErrInvalidArgument = errors.New("invalid argument")

// RunSource fetches live pending runs and reference data.
type RunSource interface {
	FetchPendingAll(ctx context.Context, gameIDs []string) (map[string]*srcom.Batch, error)
	FetchModerators(ctx context.Context, gameID string) ([]string, error)
}

// Store is the storage the service needs.
type Store interface {
	store.BookingStore
	store.RunCache
}

// Game is a tracked leaderboard.
type Game struct {
	ID   string
	Name string
}

// Policy holds the configurable ownership rules.
type Policy struct {
	// ForceRelease lets any authenticated moderator release any claim on the
	// unbook path instead of only their own.
	ForceRelease bool
}

// Service is the booking service.
type Service struct {
	source RunSource
	store  Store
	games  []Game
	policy Policy
	logger *slog.Logger
}

// New creates a Service tracking games, in display order.
func New(source RunSource, s Store, games []Game, policy Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		store:  s,
		games:  games,
		policy: policy,
		logger: logger,
	}
}

// Book claims runID for identity. Re-claiming overwrites the previous claimant.
// The Nobody identity releases the run whoever holds it; this is the one place
// a release skips the ownership check. An unbooked run still fails with
// store.ErrNotOwner.
func (s *Service) Book(ctx context.Context, runID, identity string) error {
	if runID == "" || identity == "" {
		return fmt.Errorf("%w: run id and identity are required", ErrInvalidArgument)
	}

	if identity == Nobody {
		if err := s.store.ForceRelease(ctx, runID); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "run released via sentinel", "run_id", runID)
		return nil
	}

	if err := s.store.Claim(ctx, runID, identity); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "run booked", "run_id", runID, "moderator", identity)
	return nil
}

// Unbook releases runID on behalf of actor. Unless the ForceRelease policy is
// set, actor must be the current claimant.
func (s *Service) Unbook(ctx context.Context, runID, actor string) error {
	if runID == "" || actor == "" {
		return fmt.Errorf("%w: run id and identity are required", ErrInvalidArgument)
	}

	if s.policy.ForceRelease {
		if err := s.store.ForceRelease(ctx, runID); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "run force released", "run_id", runID, "moderator", actor)
		return nil
	}

	if err := s.store.Release(ctx, runID, actor); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "run unbooked", "run_id", runID, "moderator", actor)
	return nil
}

// Pending returns the live pending runs of every tracked game with bookings attached.
func (s *Service) Pending(ctx context.Context) (map[string][]store.PendingRun, error) {
	live, _, err := s.fetchLive(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	return reconcile.MergeBookingsByGame(claims, live), nil
}

// PendingFlat is Pending as a single list, games in tracked order.
func (s *Service) PendingFlat(ctx context.Context) ([]store.PendingRun, error) {
	byGame, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	return s.flatten(byGame), nil
}

// Cached returns the locally cached runs that are still pending upstream.
func (s *Service) Cached(ctx context.Context) ([]store.PendingRun, error) {
	live, _, err := s.fetchLive(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	return reconcile.FilterStillPending(stored, s.flatten(live)), nil
}

// Deleted returns soft-deleted runs.
func (s *Service) Deleted(ctx context.Context) ([]store.PendingRun, error) {
	return s.store.ListSoftDeleted(ctx)
}

// SoftDelete hides a run from the cache.
func (s *Service) SoftDelete(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("%w: run id is required", ErrInvalidArgument)
	}
	return s.store.SoftDelete(ctx, runID)
}

// Restore undoes SoftDelete.
func (s *Service) Restore(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("%w: run id is required", ErrInvalidArgument)
	}
	return s.store.UnSoftDelete(ctx, runID)
}

// Refresh caches the current pending runs locally and returns how many were fetched.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	live, _, err := s.fetchLive(ctx)
	if err != nil {
		return 0, err
	}

	runs := s.flatten(live)
	if err := s.store.BulkInsert(ctx, runs); err != nil {
		return 0, err
	}
	return len(runs), nil
}

// Cleanup deletes local state for runs that have left the pending set of every
// tracked game. Nothing is deleted if any fetch fails.
func (s *Service) Cleanup(ctx context.Context) ([]string, error) {
	_, liveIDs, err := s.fetchLive(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.Cleanup(ctx, liveIDs)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.InfoContext(ctx, "stale runs removed", "count", len(deleted), "run_ids", deleted)
	}
	return deleted, nil
}

// Moderators returns the moderators of gameID, or of the first tracked game.
func (s *Service) Moderators(ctx context.Context, gameID string) ([]string, error) {
	if gameID == "" {
		if len(s.games) == 0 {
			return nil, fmt.Errorf("%w: no games are tracked", ErrInvalidArgument)
		}
		gameID = s.games[0].ID
	}
	return s.source.FetchModerators(ctx, gameID)
}

// Games returns the tracked leaderboards as id -> name.
func (s *Service) Games() map[string]string {
	out := make(map[string]string, len(s.games))
	for _, g := range s.games {
		out[g.ID] = g.Name
	}
	return out
}

// fetchLive fetches every tracked game. The returned id set also contains runs
// that were skipped as undecodable: they are still pending upstream, so their
// bookings must survive cleanup.
func (s *Service) fetchLive(ctx context.Context) (map[string][]store.PendingRun, reconcile.Set, error) {
	ids := make([]string, len(s.games))
	for i, g := range s.games {
		ids[i] = g.ID
	}

	batches, err := s.source.FetchPendingAll(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch pending runs: %w", err)
	}

	live := make(map[string][]store.PendingRun, len(batches))
	liveIDs := make(reconcile.Set)
	for game, b := range batches {
		live[game] = b.Runs
		for _, r := range b.Runs {
			liveIDs[r.ID] = struct{}{}
		}
		for _, skipped := range b.Skipped {
			liveIDs[skipped.RunID] = struct{}{}
			s.logger.WarnContext(ctx, "skipped undecodable run", "game_id", game, "run_id", skipped.RunID, "error", skipped.Err)
		}
	}
	return live, liveIDs, nil
}

func (s *Service) flatten(byGame map[string][]store.PendingRun) []store.PendingRun {
	var out []store.PendingRun
	for _, g := range s.games {
		out = append(out, byGame[g.ID]...)
	}
	if out == nil {
		out = []store.PendingRun{}
	}
	return out
}
