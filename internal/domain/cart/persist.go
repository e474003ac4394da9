package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// ErrNotPersisted is returned by Persister.Load when no cart has been stored
// under the key.
var ErrNotPersisted = errors.New("cart not persisted")

// Persister is the durable key/value surface the cart is written through.
// Save is best-effort: implementations should return errors for logging but
// callers never roll back an in-memory transition because of one.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Rehydrate loads a previously persisted cart state. Absent, corrupt, or
// version-mismatched payloads yield an empty state; the session always
// starts, durability problems are only logged.
func Rehydrate(ctx context.Context, p Persister, key string, lg *zap.Logger) State {
	data, err := p.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotPersisted) {
			lg.Warn("Cart load failed, starting empty",
				zap.String("key", key), zap.Error(err))
		}
		return State{}
	}

	state, err := DecodeState(data)
	if err != nil {
		lg.Warn("Discarding unreadable persisted cart",
			zap.String("key", key), zap.Error(err))
		return State{}
	}
	return state
}

// saveTimeout bounds a single persistence write.
const saveTimeout = 5 * time.Second

// AttachPersistence subscribes a write-through persistence adapter to the
// store. Writes happen on a single background goroutine and coalesce: if
// transitions outpace the persister only the latest state is written.
// Persistence failures are logged and never block a transition.
//
// The returned detach function unsubscribes, flushes a pending write, and
// stops the goroutine.
func AttachPersistence(s *Store, p Persister, key string, lg *zap.Logger) (detach func()) {
	pending := make(chan State, 1)
	stop := make(chan struct{})
	done := make(chan struct{})

	unsubscribe := s.Subscribe(func(st State) {
		// Replace any queued state; the writer only needs the newest one.
		for {
			select {
			case pending <- st:
				return
			default:
				select {
				case <-pending:
				default:
				}
			}
		}
	})

	write := func(st State) {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := p.Save(ctx, key, EncodeState(st)); err != nil {
			lg.Warn("Cart persistence write failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	go func() {
		defer close(done)
		for {
			select {
			case st := <-pending:
				write(st)
			case <-stop:
				// Flush the last queued state before exiting.
				select {
				case st := <-pending:
					write(st)
				default:
				}
				return
			}
		}
	}()

	return func() {
		unsubscribe()
		close(stop)
		<-done
	}
}
