package store

import (
	"context"
	"errors"
)

var (
	// ErrNotOwner is returned when a release is attempted by someone other than
	// the current claimant, or when there is no claim to release.
	ErrNotOwner = errors.New("run is not booked by this moderator")

	// ErrNotFound is returned when a run or user does not exist locally.
	ErrNotFound = errors.New("not found")
)

// BookingStore is the durable run_id -> moderator claim map.
// Every method is a single synchronous unit; none of them span an upstream call.
type BookingStore interface {
	// ListBookings returns every current claim keyed by run id.
	ListBookings(ctx context.Context) (map[string]string, error)

	// Claim inserts or replaces the claim for runID. Unknown ids are accepted.
	Claim(ctx context.Context, runID, moderator string) error

	// Release clears the claim only if it is held by moderator.
	// Returns ErrNotOwner otherwise and leaves the store unchanged.
	Release(ctx context.Context, runID, moderator string) error

	// ForceRelease clears the claim regardless of who holds it. An unbooked
	// run fails with ErrNotOwner, the same as Release.
	ForceRelease(ctx context.Context, runID string) error

	// Cleanup deletes every stored run whose id is not in live, atomically,
	// and returns the deleted ids.
	Cleanup(ctx context.Context, live map[string]struct{}) ([]string, error)

	// CountBookings returns the number of runs currently claimed.
	CountBookings(ctx context.Context) (int64, error)
}

// RunCache holds locally cached run metadata.
type RunCache interface {
	// ListActive returns cached runs that are not soft-deleted, newest first.
	ListActive(ctx context.Context) ([]PendingRun, error)

	// ListSoftDeleted returns soft-deleted runs, newest first.
	ListSoftDeleted(ctx context.Context) ([]PendingRun, error)

	SoftDelete(ctx context.Context, runID string) error
	UnSoftDelete(ctx context.Context, runID string) error

	// BulkInsert caches runs in one transaction, ignoring ids already present.
	BulkInsert(ctx context.Context, runs []PendingRun) error
}

// UserStore handles moderator credentials for password authentication.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, username string) (*User, error)
}
