package review

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	// ErrInvalidRating is returned when a rating falls outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrEmptyAuthor is returned when the author name is blank.
	ErrEmptyAuthor = errors.New("author required")
)

// Review is a shopper-submitted product review.
type Review struct {
	ID        string
	ProductID string
	Author    string
	Rating    int
	Body      string
	CreatedAt time.Time
}

// Repository defines persistence operations for reviews.
type Repository interface {
	// ListByProduct returns the product's reviews newest-first.
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Create(ctx context.Context, r *Review) error
}

// Service validates and stores product reviews.
type Service struct {
	reviews Repository
}

// NewService creates a review Service.
func NewService(reviews Repository) *Service {
	return &Service{reviews: reviews}
}

// List returns reviews for a product, newest first.
func (s *Service) List(ctx context.Context, productID string) ([]Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

// Add validates and persists a review.
func (s *Service) Add(ctx context.Context, productID, author string, rating int, body string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	author = strings.TrimSpace(author)
	if author == "" {
		return nil, ErrEmptyAuthor
	}

	r := &Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		Author:    author,
		Rating:    rating,
		Body:      strings.TrimSpace(body),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}
