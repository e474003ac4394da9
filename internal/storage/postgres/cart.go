package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/verdant-storefront/internal/domain/cart"
)

var _ cart.Persister = (*CartStore)(nil)

// CartStore implements cart.Persister as a per-device key/value blob table.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Load reads the persisted cart payload for a device.
func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM carts WHERE device_id = $1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotPersisted
		}
		return nil, fmt.Errorf("loading cart %q: %w", key, err)
	}
	return payload, nil
}

// Save writes the cart payload for a device, replacing any previous value.
func (s *CartStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO carts (device_id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (device_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = now()`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("saving cart %q: %w", key, err)
	}
	return nil
}
