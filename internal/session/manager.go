// Package session maps opaque device identifiers to their cart store and
// checkout orchestrator. A device's cart is process-wide state: constructed
// (or rehydrated) once, mutated for the whole browsing session, and bounded
// by durable storage rather than request lifetime.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xenking/verdant-storefront/internal/domain/cart"
	"github.com/xenking/verdant-storefront/internal/domain/checkout"
	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// Session bundles one device's cart store and checkout orchestrator.
type Session struct {
	Cart     *cart.Store
	Checkout *checkout.Orchestrator

	detach func()
}

// Manager lazily creates sessions per device ID. The cart store is seeded
// from the persister and a write-through persistence adapter is attached
// before the store is handed out, so no transition can be lost between
// construction and first use.
type Manager struct {
	persister cart.Persister
	catalog   product.Source
	orders    checkout.OrderCreator
	lg        *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session Manager.
func NewManager(persister cart.Persister, catalog product.Source, orders checkout.OrderCreator, lg *zap.Logger) *Manager {
	return &Manager{
		persister: persister,
		catalog:   catalog,
		orders:    orders,
		lg:        lg,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session for a device, creating and rehydrating it on
// first access.
func (m *Manager) Get(ctx context.Context, deviceID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[deviceID]; ok {
		return s
	}

	store := cart.NewStoreWith(cart.Rehydrate(ctx, m.persister, deviceID, m.lg))
	detach := cart.AttachPersistence(store, m.persister, deviceID, m.lg)

	s := &Session{
		Cart:     store,
		Checkout: checkout.New(store, m.catalog, m.orders, m.lg),
		detach:   detach,
	}
	m.sessions[deviceID] = s
	return s
}

// Close flushes and detaches every session's persistence adapter. Called on
// shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.detach()
	}
}
