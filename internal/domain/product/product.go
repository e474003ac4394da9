package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category string
	InStock  bool
	// Sizes lists the selectable size variants. Empty means the product has
	// no size dimension and must be added to a cart with SizeNone.
	Sizes []Size
	Image Image
}

// HasSize reports whether s is a valid variant selection for the product.
// SizeNone is valid only for products without a size dimension.
func (p Product) HasSize(s Size) bool {
	if len(p.Sizes) == 0 {
		return s == SizeNone
	}
	for _, v := range p.Sizes {
		if v == s {
			return true
		}
	}
	return false
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Mobile    string
	Tablet    string
	Desktop   string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
