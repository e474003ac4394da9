package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/verdant-storefront/internal/domain/review"
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// ListByProduct returns the product's reviews, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, author, rating, body, created_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for %q: %w", productID, err)
	}
	defer rows.Close()

	var reviews []review.Review
	for rows.Next() {
		var rv review.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Author, &rv.Rating, &rv.Body, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading reviews: %w", err)
	}
	return reviews, nil
}

// Create persists a new review.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO reviews (id, product_id, author, rating, body)
		VALUES ($1, $2, $3, $4, $5)`,
		rv.ID, rv.ProductID, rv.Author, rv.Rating, rv.Body,
	)
	if err != nil {
		return fmt.Errorf("creating review %q: %w", rv.ID, err)
	}
	return nil
}
