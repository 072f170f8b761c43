package postgres

import (
	"context"
	"fmt"

	"srcbook/internal/reconcile"
	"srcbook/internal/store"

	"github.com/lib/pq"
)

// ListBookings returns every claimed run keyed by run id.
func (s *Store) ListBookings(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, booked_by FROM pending_runs WHERE booked_by IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make(map[string]string)
	for rows.Next() {
		var id, bookedBy string
		if err := rows.Scan(&id, &bookedBy); err != nil {
			return nil, fmt.Errorf("list bookings scan: %w", err)
		}
		bookings[id] = bookedBy
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings rows: %w", err)
	}

	return bookings, nil
}

// Claim upserts the claim. A run that is not cached yet gets a placeholder row
// whose metadata is filled in by the next BulkInsert.
func (s *Store) Claim(ctx context.Context, runID, moderator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO pending_runs (id, booked_by)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET booked_by = EXCLUDED.booked_by
	`
	if _, err := s.db.ExecContext(ctx, query, runID, moderator); err != nil {
		return fmt.Errorf("claim run %s: %w", runID, err)
	}
	return nil
}

// Release clears the claim only when moderator holds it.
func (s *Store) Release(ctx context.Context, runID, moderator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_runs SET booked_by = NULL WHERE id = $1 AND booked_by = $2`,
		runID, moderator,
	)
	if err != nil {
		return fmt.Errorf("release run %s: %w", runID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("release run %s by %s: %w", runID, moderator, store.ErrNotOwner)
	}
	return nil
}

// ForceRelease clears the claim whoever holds it. Like Release, it fails with
// ErrNotOwner when the run is not booked.
func (s *Store) ForceRelease(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_runs SET booked_by = NULL WHERE id = $1 AND booked_by IS NOT NULL`,
		runID,
	)
	if err != nil {
		return fmt.Errorf("force release run %s: %w", runID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("force release run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("force release run %s: not booked: %w", runID, store.ErrNotOwner)
	}
	return nil
}

// Cleanup deletes every stored run that is no longer pending upstream.
// The id scan and the delete share one transaction.
func (s *Store) Cleanup(ctx context.Context, live map[string]struct{}) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cleanup begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM pending_runs FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("cleanup select: %w", err)
	}

	stored := make(reconcile.Set)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cleanup scan: %w", err)
		}
		stored[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cleanup rows: %w", err)
	}

	stale := reconcile.StaleIDs(stored, live).Sorted()
	if len(stale) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("cleanup commit: %w", err)
		}
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_runs WHERE id = ANY($1)`, pq.Array(stale)); err != nil {
		return nil, fmt.Errorf("cleanup delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cleanup commit: %w", err)
	}
	return stale, nil
}

// CountBookings returns the number of claimed runs.
func (s *Store) CountBookings(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_runs WHERE booked_by IS NOT NULL`).Scan(&n)
	return n, err
}
