package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/verdant-storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateIdempotent persists a new order unless one already exists for the
// idempotency key. Items and contact are serialized to JSONB. The unique
// constraint on idempotency_key makes the insert race-safe: whichever
// attempt wins, every caller observes the same stored order.
func (r *OrderRepository) CreateIdempotent(ctx context.Context, o *order.Order) (*order.Order, bool, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return nil, false, fmt.Errorf("marshaling order items: %w", err)
	}
	contactJSON, err := json.Marshal(o.Contact)
	if err != nil {
		return nil, false, fmt.Errorf("marshaling order contact: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `INSERT INTO orders
		(id, idempotency_key, items, subtotal, contact, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		o.ID, o.IdempotencyKey, itemsJSON, o.Subtotal, contactJSON, string(o.Status),
	)
	if err != nil {
		return nil, false, fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	stored, err := r.findByKey(ctx, o.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("reading back order for key %q: %w", o.IdempotencyKey, err)
	}
	return stored, tag.RowsAffected() == 1, nil
}

// FindByIDAndEmail returns the order when both identifier and contact email
// match.
func (r *OrderRepository) FindByIDAndEmail(ctx context.Context, id, email string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT
		id, idempotency_key, items, subtotal, contact, status, created_at
		FROM orders WHERE id = $1 AND contact ->> 'email' = $2`, id, email)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

func (r *OrderRepository) findByKey(ctx context.Context, key string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT
		id, idempotency_key, items, subtotal, contact, status, created_at
		FROM orders WHERE idempotency_key = $1`, key)
	return scanOrder(row)
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o           order.Order
		itemsJSON   []byte
		contactJSON []byte
		status      string
	)
	err := row.Scan(&o.ID, &o.IdempotencyKey, &itemsJSON, &o.Subtotal,
		&contactJSON, &status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(contactJSON, &o.Contact); err != nil {
		return nil, fmt.Errorf("unmarshaling order contact: %w", err)
	}
	o.Status = order.Status(status)
	return &o, nil
}
