package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"srcbook/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`
	if _, err := s.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt); err != nil {
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u store.User
	err := s.db.QueryRowContext(ctx,
		"SELECT username, password_hash, created_at FROM users WHERE username = $1",
		username,
	).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}
