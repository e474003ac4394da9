package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order validation and lookup.
var (
	ErrEmptyItems   = fmt.Errorf("items required")
	ErrEmptyContact = fmt.Errorf("contact email required")
	ErrNotFound     = fmt.Errorf("order not found")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	Items   []Item
	Contact Contact
}

// Service encapsulates order creation and lookup. Creation is idempotent on
// the client-supplied key: a repeated key returns the originally persisted
// order, so a retry after a lost response cannot create a duplicate.
type Service struct {
	orders Repository
}

// NewService creates an order Service with the required repository.
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// Create validates the payload, computes the subtotal, and persists the
// order under the idempotency key.
func (s *Service) Create(ctx context.Context, idempotencyKey string, req CreateRequest) (*Order, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key required")
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if strings.TrimSpace(req.Contact.Email) == "" {
		return nil, ErrEmptyContact
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.UnitPrice.Mul(qty))
	}

	o := &Order{
		ID:             uuid.New().String(),
		IdempotencyKey: idempotencyKey,
		Items:          req.Items,
		Subtotal:       subtotal.Round(2),
		Contact:        req.Contact,
		Status:         StatusConfirmed,
	}

	// On a repeated key the repository returns the originally persisted
	// order instead of inserting a second one.
	stored, _, err := s.orders.CreateIdempotent(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return stored, nil
}

// Lookup returns a read-only projection of an order. The contact email acts
// as the verifying credential; a mismatch is indistinguishable from a
// missing order.
func (s *Service) Lookup(ctx context.Context, orderID, email string) (*Order, error) {
	if orderID == "" || strings.TrimSpace(email) == "" {
		return nil, ErrNotFound
	}
	o, err := s.orders.FindByIDAndEmail(ctx, orderID, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return o, nil
}
