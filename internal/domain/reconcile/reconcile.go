// Package reconcile re-validates cart contents against current catalog truth
// before checkout. Reconciliation is a pure function of its two inputs and
// never mutates the cart; the checkout orchestrator applies user-approved
// corrections back through the cart store's normal transitions.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/cart"
	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// Outcome classifies a single line item against the catalog snapshot.
type Outcome uint8

const (
	// Unchanged means price and availability still match the cart's snapshot.
	Unchanged Outcome = iota
	// PriceChanged means the catalog price differs from the snapshotted
	// unit price; the result carries both values.
	PriceChanged
	// Unavailable means the product exists but is out of stock.
	Unavailable
	// Removed means the product no longer exists in the catalog.
	Removed
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case PriceChanged:
		return "price_changed"
	case Unavailable:
		return "unavailable"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// LineResult is the reconciliation outcome for one line item. OldPrice and
// NewPrice are populated only for PriceChanged.
type LineResult struct {
	Item     cart.LineItem
	Outcome  Outcome
	OldPrice decimal.Decimal
	NewPrice decimal.Decimal
}

// Result is the cart-level reconciliation report.
type Result struct {
	Lines []LineResult
}

// Clean reports whether every line is Unchanged, i.e. checkout may proceed
// without user decisions.
func (r Result) Clean() bool {
	for _, l := range r.Lines {
		if l.Outcome != Unchanged {
			return false
		}
	}
	return true
}

// Conflicts returns the lines requiring a user decision.
func (r Result) Conflicts() []LineResult {
	var out []LineResult
	for _, l := range r.Lines {
		if l.Outcome != Unchanged {
			out = append(out, l)
		}
	}
	return out
}

// Cart recomputes each line of the cart state against the catalog snapshot.
// Running it twice on the same inputs yields identical results.
func Cart(state cart.State, catalog *product.Snapshot) Result {
	lines := make([]LineResult, len(state.Items))
	for i, li := range state.Items {
		lines[i] = line(li, catalog)
	}
	return Result{Lines: lines}
}

func line(li cart.LineItem, catalog *product.Snapshot) LineResult {
	p, ok := catalog.Lookup(li.ProductID)
	if !ok {
		return LineResult{Item: li, Outcome: Removed}
	}
	if !p.InStock {
		return LineResult{Item: li, Outcome: Unavailable}
	}
	if !p.Price.Equal(li.UnitPrice) {
		return LineResult{
			Item:     li,
			Outcome:  PriceChanged,
			OldPrice: li.UnitPrice,
			NewPrice: p.Price,
		}
	}
	return LineResult{Item: li, Outcome: Unchanged}
}
