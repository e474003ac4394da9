package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/verdant-storefront/internal/domain/auth"
)

var _ auth.Repository = (*SessionRepository)(nil)

// SessionRepository implements auth.Repository backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// FindByTokenHash returns the active session matching the HMAC token hash.
func (r *SessionRepository) FindByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	var s auth.Session
	err := r.pool.QueryRow(ctx, `SELECT id, token_hash, email, name, active
		FROM sessions WHERE token_hash = $1 AND active`, hash).
		Scan(&s.ID, &s.TokenHash, &s.Identity.Email, &s.Identity.Name, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	s.Identity.ID = s.ID
	return &s, nil
}

// UpsertSession inserts or replaces a session row. Used by the seed tool.
func (r *SessionRepository) UpsertSession(ctx context.Context, s auth.Session) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, token_hash, email, name, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			active = EXCLUDED.active`,
		s.ID, s.TokenHash, s.Identity.Email, s.Identity.Name, s.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting session %q: %w", s.ID, err)
	}
	return nil
}
