package product

import "context"

// Snapshot is an immutable point-in-time view of the catalog. The checkout
// flow reconciles cart contents against a single snapshot so every line item
// is judged against the same truth.
type Snapshot struct {
	byID  map[string]Product
	order []string
}

// NewSnapshot builds a Snapshot from a product list. Later duplicates of the
// same ID win, matching upsert semantics of the backing store.
func NewSnapshot(products []Product) *Snapshot {
	s := &Snapshot{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, ok := s.byID[p.ID]; !ok {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
	}
	return s
}

// Lookup returns the product with the given ID.
func (s *Snapshot) Lookup(id string) (Product, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Products returns all products in first-seen order.
func (s *Snapshot) Products() []Product {
	out := make([]Product, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

// Len returns the number of distinct products in the snapshot.
func (s *Snapshot) Len() int { return len(s.byID) }

// Source produces catalog snapshots. Implementations typically wrap a
// Repository and load the full catalog in one batch.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// RepositorySource adapts a Repository into a Source.
type RepositorySource struct {
	repo Repository
}

// NewRepositorySource returns a Source backed by repo.
func NewRepositorySource(repo Repository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

// Snapshot loads the complete catalog from the repository.
func (s *RepositorySource) Snapshot(ctx context.Context) (*Snapshot, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(products), nil
}
