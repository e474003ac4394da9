package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock repository ---

type mockOrderRepo struct {
	byKey     map[string]*Order
	createErr error
	calls     int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byKey: make(map[string]*Order)}
}

func (m *mockOrderRepo) CreateIdempotent(_ context.Context, o *Order) (*Order, bool, error) {
	m.calls++
	if m.createErr != nil {
		return nil, false, m.createErr
	}
	if existing, ok := m.byKey[o.IdempotencyKey]; ok {
		return existing, false, nil
	}
	stored := *o
	m.byKey[o.IdempotencyKey] = &stored
	return &stored, true, nil
}

func (m *mockOrderRepo) FindByIDAndEmail(_ context.Context, id, email string) (*Order, error) {
	for _, o := range m.byKey {
		if o.ID == id && o.Contact.Email == email {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

// --- Helpers ---

func validRequest() CreateRequest {
	return CreateRequest{
		Items: []Item{
			{ProductID: "tee", Name: "Tee", Variant: "medium", Quantity: 2, UnitPrice: decimal.RequireFromString("24.50")},
			{ProductID: "beanie", Name: "Beanie", Quantity: 1, UnitPrice: decimal.RequireFromString("18.00")},
		},
		Contact: Contact{
			Email:      "shopper@example.com",
			Name:       "Shopper",
			Address:    "1 Main St",
			City:       "Springfield",
			PostalCode: "12345",
		},
	}
}

// --- Tests ---

func TestCreate_ComputesSubtotal(t *testing.T) {
	svc := NewService(newMockOrderRepo())

	o, err := svc.Create(context.Background(), "key-1", validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.True(t, decimal.RequireFromString("67.00").Equal(o.Subtotal))
	assert.Len(t, o.Items, 2)
}

func TestCreate_MissingIdempotencyKey(t *testing.T) {
	svc := NewService(newMockOrderRepo())

	_, err := svc.Create(context.Background(), "", validRequest())
	require.Error(t, err)
}

func TestCreate_EmptyItems(t *testing.T) {
	svc := NewService(newMockOrderRepo())

	req := validRequest()
	req.Items = nil
	_, err := svc.Create(context.Background(), "key-1", req)
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreate_EmptyContact(t *testing.T) {
	svc := NewService(newMockOrderRepo())

	req := validRequest()
	req.Contact.Email = "   "
	_, err := svc.Create(context.Background(), "key-1", req)
	require.ErrorIs(t, err, ErrEmptyContact)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	svc := NewService(newMockOrderRepo())

	req := validRequest()
	req.Items[0].Quantity = 0
	_, err := svc.Create(context.Background(), "key-1", req)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "tee", iqErr.ProductID)
}

func TestCreate_RepeatedKeyReturnsOriginalOrder(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), "key-1", validRequest())
	require.NoError(t, err)

	// Retry with the same key, even with a different payload: the stored
	// order wins.
	req := validRequest()
	req.Items = req.Items[:1]
	second, err := svc.Create(context.Background(), "key-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Items, 2)
	assert.Equal(t, 2, repo.calls)
	assert.Len(t, repo.byKey, 1, "only one order persisted")
}

func TestCreate_DistinctKeysCreateDistinctOrders(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), "key-1", validRequest())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "key-2", validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, repo.byKey, 2)
}

func TestCreate_RepositoryError(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErr = errors.New("db write failed")
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "key-1", validRequest())
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), "key-1", validRequest())
	require.NoError(t, err)

	found, err := svc.Lookup(context.Background(), created.ID, "shopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestLookup_WrongEmailLooksMissing(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), "key-1", validRequest())
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), created.ID, "other@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_BlankInputs(t *testing.T) {
	svc := NewService(newMockOrderRepo())

	_, err := svc.Lookup(context.Background(), "", "shopper@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Lookup(context.Background(), "some-id", "  ")
	require.ErrorIs(t, err, ErrNotFound)
}
