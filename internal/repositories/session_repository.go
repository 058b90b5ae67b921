package repositories

import (
	"context"
	"fmt"

	"github.com/Paxto2002/project-vidora/internal/auth"
	"github.com/Paxto2002/project-vidora/internal/db"
)

// PostgresRefreshStore persists each user's active refresh token on the users table.
type PostgresRefreshStore struct {
	pool db.Pool
}

// NewPostgresRefreshStore constructs a refresh store backed by PostgreSQL.
func NewPostgresRefreshStore(pool db.Pool) *PostgresRefreshStore {
	return &PostgresRefreshStore{pool: pool}
}

// Save replaces the stored refresh token.
func (s *PostgresRefreshStore) Save(ctx context.Context, userID, token string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2
        WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

// Swap replaces presented with next in a single conditional update, so concurrent
// presentations of the same token rotate it at most once.
func (s *PostgresRefreshStore) Swap(ctx context.Context, userID, presented, next string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $3
        WHERE id = $1 AND refresh_token = $2
    `, userID, presented, next)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrRefreshTokenReused
	}

	return nil
}

// Clear removes the stored refresh token.
func (s *PostgresRefreshStore) Clear(ctx context.Context, userID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

var _ auth.RefreshStore = (*PostgresRefreshStore)(nil)
