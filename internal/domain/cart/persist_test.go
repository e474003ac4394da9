package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// --- Mock persister ---

type mockPersister struct {
	mu      sync.Mutex
	stored  map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newMockPersister() *mockPersister {
	return &mockPersister{stored: make(map[string][]byte)}
}

func (m *mockPersister) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.stored[key]
	if !ok {
		return nil, ErrNotPersisted
	}
	return data, nil
}

func (m *mockPersister) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored[key] = data
	return nil
}

func (m *mockPersister) saved(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[key]
}

func (m *mockPersister) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// --- Tests ---

func TestRehydrate_NothingStored(t *testing.T) {
	state := Rehydrate(context.Background(), newMockPersister(), "dev-1", zap.NewNop())
	assert.Empty(t, state.Items)
	assert.False(t, state.Open)
}

func TestRehydrate_RestoresStoredState(t *testing.T) {
	p := newMockPersister()
	p.stored["dev-1"] = EncodeState(sampleState())

	state := Rehydrate(context.Background(), p, "dev-1", zap.NewNop())
	require.Len(t, state.Items, 2)
	assert.True(t, state.Open)
}

func TestRehydrate_CorruptPayloadFallsBackEmpty(t *testing.T) {
	p := newMockPersister()
	p.stored["dev-1"] = []byte("{{{ not json")

	state := Rehydrate(context.Background(), p, "dev-1", zap.NewNop())
	assert.Empty(t, state.Items)
	assert.False(t, state.Open)
}

func TestRehydrate_VersionMismatchFallsBackEmpty(t *testing.T) {
	p := newMockPersister()
	p.stored["dev-1"] = []byte(`{"version":42,"open":true,"items":[]}`)

	state := Rehydrate(context.Background(), p, "dev-1", zap.NewNop())
	assert.Empty(t, state.Items)
	assert.False(t, state.Open)
}

func TestRehydrate_LoadErrorFallsBackEmpty(t *testing.T) {
	p := newMockPersister()
	p.loadErr = errors.New("connection refused")

	state := Rehydrate(context.Background(), p, "dev-1", zap.NewNop())
	assert.Empty(t, state.Items)
}

func TestAttachPersistence_WritesThrough(t *testing.T) {
	p := newMockPersister()
	s := NewStore()
	detach := AttachPersistence(s, p, "dev-1", zap.NewNop())

	s.AddItem(testProduct("tee", "10.00", product.SizeSmall), product.SizeSmall, 2)
	detach()

	data := p.saved("dev-1")
	require.NotNil(t, data)

	state, err := DecodeState(data)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
}

func TestAttachPersistence_FlushesLatestStateOnDetach(t *testing.T) {
	p := newMockPersister()
	s := NewStore()
	detach := AttachPersistence(s, p, "dev-1", zap.NewNop())

	tee := testProduct("tee", "10.00", product.SizeSmall)
	s.AddItem(tee, product.SizeSmall, 1)
	for q := 2; q <= 10; q++ {
		s.SetQuantity("tee", product.SizeSmall, q)
	}
	s.SetQuantity("tee", product.SizeSmall, 7)
	detach()

	state, err := DecodeState(p.saved("dev-1"))
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 7, state.Items[0].Quantity, "detach flushes the newest state")
}

func TestAttachPersistence_SaveFailureDoesNotBlockTransitions(t *testing.T) {
	p := newMockPersister()
	p.saveErr = errors.New("disk full")

	s := NewStore()
	detach := AttachPersistence(s, p, "dev-1", zap.NewNop())

	tee := testProduct("tee", "10.00", product.SizeSmall)
	s.AddItem(tee, product.SizeSmall, 1)
	s.AddItem(tee, product.SizeSmall, 1)
	detach()

	// In-memory state is intact even though every write failed.
	assert.Equal(t, 2, s.Snapshot().Items[0].Quantity)
	assert.Positive(t, p.saveCount())
}

func TestAttachPersistence_DetachStopsWrites(t *testing.T) {
	p := newMockPersister()
	s := NewStore()
	detach := AttachPersistence(s, p, "dev-1", zap.NewNop())

	s.AddItem(testProduct("tee", "10.00", product.SizeSmall), product.SizeSmall, 1)
	detach()
	before := p.saveCount()

	s.SetQuantity("tee", product.SizeSmall, 9)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, before, p.saveCount(), "no writes after detach")
}

func TestPersistenceRoundTrip_SurvivesRestart(t *testing.T) {
	p := newMockPersister()

	// First session: build up a cart, then detach (process exit).
	s1 := NewStore()
	detach := AttachPersistence(s1, p, "dev-1", zap.NewNop())
	s1.AddItem(testProduct("tee", "24.50", product.SizeMedium), product.SizeMedium, 2)
	s1.Open()
	detach()

	// Second session: rehydrate into a fresh store.
	s2 := NewStoreWith(Rehydrate(context.Background(), p, "dev-1", zap.NewNop()))
	st := s2.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, 2, st.Items[0].Quantity)
	assert.True(t, st.Open)
}
