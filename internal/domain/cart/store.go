package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// Store is the single source of truth for one shopper's cart. Transitions
// are serialized, total (invalid input degrades to a no-op, never an error),
// and each completed transition notifies every subscriber exactly once with
// the post-transition state.
//
// A Store is constructed once per device and shared by reference; only its
// own transition methods mutate the state.
type Store struct {
	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewStore returns an empty cart store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

// NewStoreWith returns a store seeded with a rehydrated state.
func NewStoreWith(state State) *Store {
	s := NewStore()
	s.state = state.clone()
	return s
}

// Subscribe registers fn to be called after every transition. The returned
// cancel function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns an immutable copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// AddItem merges quantity into an existing (product, variant) line or appends
// a new line with the product's current price snapshotted. It is a no-op when
// quantity is not positive, the product is out of stock, or the variant is
// not offered for the product.
func (s *Store) AddItem(p product.Product, variant product.Size, quantity int) {
	if quantity <= 0 || !p.InStock || !p.HasSize(variant) {
		return
	}

	s.transition(func(st *State) bool {
		for i := range st.Items {
			if st.Items[i].ProductID == p.ID && st.Items[i].Variant == variant {
				st.Items[i].Quantity += quantity
				return true
			}
		}
		st.Items = append(st.Items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Variant:   variant,
			Quantity:  quantity,
			UnitPrice: p.Price,
		})
		return true
	})
}

// RemoveItem deletes the matching line; no-op when absent.
func (s *Store) RemoveItem(productID string, variant product.Size) {
	s.transition(func(st *State) bool {
		for i := range st.Items {
			if st.Items[i].ProductID == productID && st.Items[i].Variant == variant {
				st.Items = append(st.Items[:i], st.Items[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetQuantity replaces the line's quantity. A quantity of zero or less
// removes the line. The unit-price snapshot is kept.
func (s *Store) SetQuantity(productID string, variant product.Size, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID, variant)
		return
	}

	s.transition(func(st *State) bool {
		for i := range st.Items {
			if st.Items[i].ProductID == productID && st.Items[i].Variant == variant {
				if st.Items[i].Quantity == quantity {
					return false
				}
				st.Items[i].Quantity = quantity
				return true
			}
		}
		return false
	})
}

// RefreshPrice re-snapshots the line's unit price. Used by checkout when the
// shopper accepts a reconciled price change; no-op when the line is absent.
func (s *Store) RefreshPrice(productID string, variant product.Size, price decimal.Decimal) {
	s.transition(func(st *State) bool {
		for i := range st.Items {
			if st.Items[i].ProductID == productID && st.Items[i].Variant == variant {
				if st.Items[i].UnitPrice.Equal(price) {
					return false
				}
				st.Items[i].UnitPrice = price
				return true
			}
		}
		return false
	})
}

// Clear empties all lines and closes the drawer.
func (s *Store) Clear() {
	s.transition(func(st *State) bool {
		if len(st.Items) == 0 && !st.Open {
			return false
		}
		st.Items = nil
		st.Open = false
		return true
	})
}

// Open makes the cart drawer visible.
func (s *Store) Open() {
	s.transition(func(st *State) bool {
		if st.Open {
			return false
		}
		st.Open = true
		return true
	})
}

// Close hides the cart drawer.
func (s *Store) Close() {
	s.transition(func(st *State) bool {
		if !st.Open {
			return false
		}
		st.Open = false
		return true
	})
}

// ToggleVisibility flips the drawer visibility flag.
func (s *Store) ToggleVisibility() {
	s.transition(func(st *State) bool {
		st.Open = !st.Open
		return true
	})
}

// transition runs fn against the state under the lock. When fn reports a
// change, subscribers are notified with a snapshot after the lock is
// released, so callbacks may safely call back into the store.
func (s *Store) transition(fn func(*State) bool) {
	s.mu.Lock()
	changed := fn(&s.state)
	var snapshot State
	var subs []func(State)
	if changed {
		snapshot = s.state.clone()
		subs = make([]func(State), 0, len(s.subs))
		for _, fn := range s.subs {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
