// Package checkout drives the multi-step checkout sequence: review and
// reconciliation, contact capture, and idempotent order submission. The
// orchestrator composes the cart store, the reconciliation report, and the
// external order collaborator; the cart is cleared only after the
// collaborator confirms persistence.
package checkout

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/verdant-storefront/internal/domain/cart"
	"github.com/xenking/verdant-storefront/internal/domain/order"
	"github.com/xenking/verdant-storefront/internal/domain/product"
	"github.com/xenking/verdant-storefront/internal/domain/reconcile"
)

// Phase is the orchestrator's state machine position.
type Phase string

const (
	// PhaseIdle means no checkout is in progress.
	PhaseIdle Phase = "idle"
	// PhaseReviewing means reconciliation found conflicts awaiting
	// explicit shopper decisions.
	PhaseReviewing Phase = "reviewing"
	// PhaseAwaitingContact means the cart is fully reconciled and the
	// contact/shipping payload is being collected.
	PhaseAwaitingContact Phase = "awaiting_contact"
	// PhaseSubmitting means an order submission is in flight.
	PhaseSubmitting Phase = "submitting"
	// PhaseConfirmed means the order was persisted and the cart cleared.
	PhaseConfirmed Phase = "confirmed"
	// PhaseFailed means the last submission failed; retry reuses the same
	// idempotency key and the cart is untouched.
	PhaseFailed Phase = "failed"
)

// Resolution is a shopper's decision for a reconciliation conflict.
type Resolution string

const (
	// ResolutionAcceptPrice re-snapshots the line at the catalog price.
	// Valid only for price-changed lines.
	ResolutionAcceptPrice Resolution = "accept_price"
	// ResolutionRemoveLine drops the line from the cart.
	ResolutionRemoveLine Resolution = "remove"
)

var (
	ErrNotStarted       = errors.New("checkout not started")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrPendingDecisions = errors.New("unresolved reconciliation conflicts")
	ErrNoConflict       = errors.New("no conflict for line")
	ErrBadResolution    = errors.New("resolution not applicable to conflict")
	ErrContactRequired  = errors.New("contact email required")
)

// OrderCreator is the external order-creation collaborator. Repeated calls
// with the same idempotency key must resolve to a single logical order.
type OrderCreator interface {
	Create(ctx context.Context, idempotencyKey string, req order.CreateRequest) (*order.Order, error)
}

// View is an immutable snapshot of the orchestrator exposed to the
// presentation layer.
type View struct {
	Phase          Phase
	Reconciliation reconcile.Result
	Contact        order.Contact
	HasContact     bool
	Order          *order.Order
	SubmitErr      string
}

// Orchestrator runs one device's checkout. All operations are serialized;
// the order-creation call itself runs without the lock so a concurrent
// Submit observes the in-flight state instead of issuing a duplicate call.
type Orchestrator struct {
	cart    *cart.Store
	catalog product.Source
	orders  OrderCreator
	lg      *zap.Logger

	mu        sync.Mutex
	phase     Phase
	snapshot  *product.Snapshot
	recon     reconcile.Result
	contact   order.Contact
	contacted bool
	key       string
	result    *order.Order
	lastErr   error
	inFlight  bool
}

// New creates an orchestrator bound to a cart store and its collaborators.
func New(cartStore *cart.Store, catalog product.Source, orders OrderCreator, lg *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cart:    cartStore,
		catalog: catalog,
		orders:  orders,
		lg:      lg,
		phase:   PhaseIdle,
	}
}

// Start enters the review step: it snapshots the catalog, reconciles the
// cart against it, and generates the checkout's idempotency key. A non-empty
// prefill seeds the contact payload (e.g. from an authenticated session).
// Starting while a submission is in flight is a no-op returning the
// in-flight view.
func (o *Orchestrator) Start(ctx context.Context, prefill *order.Contact) (View, error) {
	state := o.cart.Snapshot()
	if len(state.Items) == 0 {
		return o.View(), ErrEmptyCart
	}

	catalog, err := o.catalog.Snapshot(ctx)
	if err != nil {
		return o.View(), errors.Wrap(err, "catalog snapshot")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return o.viewLocked(), nil
	}

	if o.phase == PhaseConfirmed {
		// Previous checkout finished; this is a fresh one.
		o.reset()
	}

	o.snapshot = catalog
	o.recon = reconcile.Cart(state, catalog)
	if o.key == "" {
		o.key = uuid.New().String()
	}
	if prefill != nil && !o.contacted {
		o.contact = *prefill
	}

	if o.recon.Clean() {
		o.phase = PhaseAwaitingContact
	} else {
		o.phase = PhaseReviewing
	}

	return o.viewLocked(), nil
}

// ConfirmDecision applies a shopper's resolution for one conflicted line.
// All corrections flow through the cart store's transition functions; the
// line is then re-reconciled against the snapshot held since Start.
func (o *Orchestrator) ConfirmDecision(productID string, variant product.Size, res Resolution) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseReviewing {
		return o.viewLocked(), ErrNotStarted
	}

	var conflict *reconcile.LineResult
	for i := range o.recon.Lines {
		l := &o.recon.Lines[i]
		if l.Item.ProductID == productID && l.Item.Variant == variant && l.Outcome != reconcile.Unchanged {
			conflict = l
			break
		}
	}
	if conflict == nil {
		return o.viewLocked(), ErrNoConflict
	}

	switch res {
	case ResolutionAcceptPrice:
		if conflict.Outcome != reconcile.PriceChanged {
			return o.viewLocked(), ErrBadResolution
		}
		o.cart.RefreshPrice(productID, variant, conflict.NewPrice)
	case ResolutionRemoveLine:
		o.cart.RemoveItem(productID, variant)
	default:
		return o.viewLocked(), ErrBadResolution
	}

	o.recon = reconcile.Cart(o.cart.Snapshot(), o.snapshot)
	if o.recon.Clean() {
		if len(o.cart.Snapshot().Items) == 0 {
			// Every line was removed; nothing left to check out.
			o.reset()
			return o.viewLocked(), ErrEmptyCart
		}
		o.phase = PhaseAwaitingContact
	}

	return o.viewLocked(), nil
}

// SetContact stores the contact/shipping payload. The cart must already be
// fully reconciled.
func (o *Orchestrator) SetContact(c order.Contact) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.phase {
	case PhaseAwaitingContact, PhaseFailed:
	case PhaseReviewing:
		return o.viewLocked(), ErrPendingDecisions
	default:
		return o.viewLocked(), ErrNotStarted
	}

	if c.Email == "" {
		return o.viewLocked(), ErrContactRequired
	}

	o.contact = c
	o.contacted = true
	return o.viewLocked(), nil
}

// Submit sends the order to the external collaborator. Guards: a checkout in
// progress, a non-empty fully reconciled cart, and a stored contact. While a
// submission is in flight, further calls are no-ops returning the in-flight
// view; a retry after failure reuses the same idempotency key so a
// lost-response duplicate cannot create a second order. The cart is cleared
// only after the collaborator's success is observed.
func (o *Orchestrator) Submit(ctx context.Context) (View, error) {
	o.mu.Lock()

	if o.inFlight {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, nil
	}

	switch o.phase {
	case PhaseAwaitingContact, PhaseFailed:
	case PhaseConfirmed:
		v := o.viewLocked()
		o.mu.Unlock()
		return v, nil
	case PhaseReviewing:
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrPendingDecisions
	default:
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrNotStarted
	}

	if !o.contacted || o.contact.Email == "" {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrContactRequired
	}

	state := o.cart.Snapshot()
	if len(state.Items) == 0 {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrEmptyCart
	}

	// The cart may have changed since Start; re-reconcile against the held
	// snapshot before constructing the payload.
	o.recon = reconcile.Cart(state, o.snapshot)
	if !o.recon.Clean() {
		o.phase = PhaseReviewing
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrPendingDecisions
	}

	req := order.CreateRequest{
		Items:   make([]order.Item, len(state.Items)),
		Contact: o.contact,
	}
	for i, li := range state.Items {
		req.Items[i] = order.Item{
			ProductID: li.ProductID,
			Name:      li.Name,
			Variant:   li.Variant.String(),
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		}
	}

	key := o.key
	o.inFlight = true
	o.phase = PhaseSubmitting
	o.lastErr = nil
	o.mu.Unlock()

	placed, err := o.orders.Create(ctx, key, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false

	if err != nil {
		o.phase = PhaseFailed
		o.lastErr = err
		o.lg.Warn("Order submission failed",
			zap.String("idempotency_key", key), zap.Error(err))
		return o.viewLocked(), nil
	}

	// Success observed: clearing the cart is now safe.
	o.cart.Clear()
	o.result = placed
	o.phase = PhaseConfirmed
	o.lg.Info("Order confirmed",
		zap.String("order_id", placed.ID),
		zap.String("idempotency_key", key))

	return o.viewLocked(), nil
}

// Abandon resets the checkout when no submission is in flight. An in-flight
// submission is abandoned, not cancelled: the orchestrator stays in
// Submitting until the collaborator settles.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return
	}
	o.reset()
}

// View returns a snapshot of the orchestrator's state.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

func (o *Orchestrator) viewLocked() View {
	v := View{
		Phase:          o.phase,
		Reconciliation: o.recon,
		Contact:        o.contact,
		HasContact:     o.contacted,
		Order:          o.result,
	}
	if o.lastErr != nil {
		v.SubmitErr = o.lastErr.Error()
	}
	return v
}

// reset must be called with the lock held.
func (o *Orchestrator) reset() {
	o.phase = PhaseIdle
	o.snapshot = nil
	o.recon = reconcile.Result{}
	o.contact = order.Contact{}
	o.contacted = false
	o.key = ""
	o.result = nil
	o.lastErr = nil
}
