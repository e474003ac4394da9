package review

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock repository ---

type mockReviewRepo struct {
	byProduct map[string][]Review
	createErr error
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{byProduct: make(map[string][]Review)}
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, productID string) ([]Review, error) {
	return m.byProduct[productID], nil
}

func (m *mockReviewRepo) Create(_ context.Context, r *Review) error {
	if m.createErr != nil {
		return m.createErr
	}
	// Newest first, matching the repository ordering.
	m.byProduct[r.ProductID] = append([]Review{*r}, m.byProduct[r.ProductID]...)
	return nil
}

// --- Tests ---

func TestAdd(t *testing.T) {
	repo := newMockReviewRepo()
	svc := NewService(repo)

	r, err := svc.Add(context.Background(), "tee", "  Ada  ", 5, "  fits great  ")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "tee", r.ProductID)
	assert.Equal(t, "Ada", r.Author, "author is trimmed")
	assert.Equal(t, "fits great", r.Body, "body is trimmed")
	assert.Len(t, repo.byProduct["tee"], 1)
}

func TestAdd_RatingBounds(t *testing.T) {
	svc := NewService(newMockReviewRepo())

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.Add(context.Background(), "tee", "Ada", rating, "")
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}
	for rating := 1; rating <= 5; rating++ {
		_, err := svc.Add(context.Background(), "tee", "Ada", rating, "")
		assert.NoError(t, err, "rating %d", rating)
	}
}

func TestAdd_EmptyAuthor(t *testing.T) {
	svc := NewService(newMockReviewRepo())

	_, err := svc.Add(context.Background(), "tee", "   ", 4, "nice")
	require.ErrorIs(t, err, ErrEmptyAuthor)
}

func TestAdd_RepositoryError(t *testing.T) {
	repo := newMockReviewRepo()
	repo.createErr = errors.New("db write failed")
	svc := NewService(repo)

	_, err := svc.Add(context.Background(), "tee", "Ada", 4, "nice")
	require.Error(t, err)
}

func TestList(t *testing.T) {
	repo := newMockReviewRepo()
	svc := NewService(repo)

	_, err := svc.Add(context.Background(), "tee", "Ada", 4, "first")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "tee", "Grace", 5, "second")
	require.NoError(t, err)

	got, err := svc.List(context.Background(), "tee")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Body, "newest first")
}

func TestList_UnknownProductIsEmpty(t *testing.T) {
	svc := NewService(newMockReviewRepo())

	got, err := svc.List(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, got)
}
