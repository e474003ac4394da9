package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// LineItem is one product+variant entry in a cart. UnitPrice is snapshotted
// when the item is added and only refreshed through an explicit RefreshPrice
// transition during checkout reconciliation.
type LineItem struct {
	ProductID string
	Name      string
	Variant   product.Size
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns UnitPrice × Quantity for the line.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// State is the cart's complete observable state. Items keep insertion order,
// with at most one line per (ProductID, Variant) pair. Open is the drawer
// visibility flag, orthogonal to line items.
type State struct {
	Items []LineItem
	Open  bool
}

// Subtotal is derived from the line items on every call; it is never stored
// so it cannot drift from the items.
func (s State) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range s.Items {
		sum = sum.Add(li.Total())
	}
	return sum
}

// ItemCount returns the total quantity across all lines.
func (s State) ItemCount() int {
	n := 0
	for _, li := range s.Items {
		n += li.Quantity
	}
	return n
}

// Find returns the line for (productID, variant) and whether it exists.
func (s State) Find(productID string, variant product.Size) (LineItem, bool) {
	for _, li := range s.Items {
		if li.ProductID == productID && li.Variant == variant {
			return li, true
		}
	}
	return LineItem{}, false
}

// clone deep-copies the state so snapshots cannot alias store internals.
func (s State) clone() State {
	out := State{Open: s.Open}
	if len(s.Items) > 0 {
		out.Items = make([]LineItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}
