package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"srcbook/internal/store"
)

const runColumns = `id, game_id, weblink, comment, player_name, player_location, player_url, category, booked_by, submitted, times`

// ListActive returns cached runs that are not soft-deleted.
// Placeholder rows created by a claim on an uncached run are skipped.
func (s *Store) ListActive(ctx context.Context) ([]store.PendingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM pending_runs WHERE deleted = FALSE AND weblink <> '' ORDER BY submitted DESC`)
}

// ListSoftDeleted returns runs hidden by a moderator.
func (s *Store) ListSoftDeleted(ctx context.Context) ([]store.PendingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM pending_runs WHERE deleted = TRUE ORDER BY submitted DESC`)
}

func (s *Store) queryRuns(ctx context.Context, query string) ([]store.PendingRun, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []store.PendingRun{}
	for rows.Next() {
		var r store.PendingRun
		var bookedBy sql.NullString
		if err := rows.Scan(
			&r.ID,
			&r.GameID,
			&r.Weblink,
			&r.Comment,
			&r.PlayerName,
			&r.PlayerLocation,
			&r.PlayerURL,
			&r.Category,
			&bookedBy,
			&r.Submitted,
			&r.Times,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if bookedBy.Valid {
			r.BookedBy = &bookedBy.String
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runs rows: %w", err)
	}
	return runs, nil
}

// SoftDelete hides a run from the active cache.
func (s *Store) SoftDelete(ctx context.Context, runID string) error {
	return s.setDeleted(ctx, runID, true)
}

// UnSoftDelete restores a hidden run.
func (s *Store) UnSoftDelete(ctx context.Context, runID string) error {
	return s.setDeleted(ctx, runID, false)
}

func (s *Store) setDeleted(ctx context.Context, runID string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE pending_runs SET deleted = $2 WHERE id = $1`, runID, deleted)
	if err != nil {
		return fmt.Errorf("set deleted on run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, store.ErrNotFound)
	}
	return nil
}

// BulkInsert caches fetched runs in a single transaction.
// Existing rows are left alone unless they are claim placeholders (empty weblink),
// in which case their metadata is filled in. booked_by and deleted are never touched.
// Any row failure rolls back the whole batch.
func (s *Store) BulkInsert(ctx context.Context, runs []store.PendingRun) error {
	if len(runs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk insert begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO pending_runs (id, game_id, weblink, comment, player_name, player_location, player_url, category, submitted, times)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			game_id = EXCLUDED.game_id,
			weblink = EXCLUDED.weblink,
			comment = EXCLUDED.comment,
			player_name = EXCLUDED.player_name,
			player_location = EXCLUDED.player_location,
			player_url = EXCLUDED.player_url,
			category = EXCLUDED.category,
			submitted = EXCLUDED.submitted,
			times = EXCLUDED.times
		WHERE pending_runs.weblink = ''
	`

	for _, r := range runs {
		if _, err := tx.ExecContext(ctx, query,
			r.ID,
			r.GameID,
			r.Weblink,
			r.Comment,
			r.PlayerName,
			r.PlayerLocation,
			r.PlayerURL,
			r.Category,
			r.Submitted,
			r.Times,
		); err != nil {
			return fmt.Errorf("bulk insert run %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk insert commit: %w", err)
	}
	return nil
}
