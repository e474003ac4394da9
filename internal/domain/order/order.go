package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// Status is the order lifecycle state after submission.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Item is a finalized order line: product, variant, quantity, and the unit
// price at submission time.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Variant   string          `json:"variant"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Contact is the shipping/contact payload captured at checkout. Email doubles
// as the lookup credential for order status queries.
type Contact struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Order is the persisted result of a checkout submission.
type Order struct {
	ID             string
	IdempotencyKey string
	Items          []Item
	Subtotal       decimal.Decimal
	Contact        Contact
	Status         Status
	CreatedAt      time.Time
}

// VariantSize parses the item's variant key back into a size.
func (i Item) VariantSize() (product.Size, error) {
	return product.ParseSize(i.Variant)
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateIdempotent persists the order unless one already exists for its
	// idempotency key. It returns the stored order (the existing one on a
	// key collision) and whether a new row was created.
	CreateIdempotent(ctx context.Context, o *Order) (*Order, bool, error)
	// FindByIDAndEmail returns the order only when both the identifier and
	// the contact email match; otherwise ErrNotFound.
	FindByIDAndEmail(ctx context.Context, id, email string) (*Order, error)
}
