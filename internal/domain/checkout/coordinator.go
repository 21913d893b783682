package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/narracraft/storefront/internal/domain/cart"
	"github.com/narracraft/storefront/internal/domain/order"
	"github.com/narracraft/storefront/internal/domain/payment"
	"github.com/narracraft/storefront/internal/domain/pricing"
)

// Notifier dispatches best-effort order notifications. Failures are logged
// by the coordinator and never surfaced to the buyer.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// EventSink receives order change events for live admin views.
type EventSink interface {
	PublishOrderEvent(kind string, rec *order.Record)
}

// session is the coordinator-owned transient state for one checkout.
// The coordinator exclusively owns the payment attempt; nothing else may
// mutate it.
type session struct {
	mu sync.Mutex

	state         State
	snapshot      pricing.Snapshot
	attempt       *payment.Attempt
	payerName     string
	placedOrderID string
}

// Coordinator drives the checkout protocol for every active session.
type Coordinator struct {
	carts    cart.Store
	provider payment.Provider
	orders   order.Store
	notifier Notifier
	events   EventSink
	lg       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session

	now   func() time.Time
	newID func() string
}

// NewCoordinator wires the coordinator with its collaborators. notifier and
// events may be nil; the corresponding steps are skipped.
func NewCoordinator(
	carts cart.Store,
	provider payment.Provider,
	orders order.Store,
	notifier Notifier,
	events EventSink,
	lg *zap.Logger,
) *Coordinator {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Coordinator{
		carts:    carts,
		provider: provider,
		orders:   orders,
		notifier: notifier,
		events:   events,
		lg:       lg,
		sessions: make(map[string]*session),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// sessionFor returns the session for the id, creating it in Idle state.
func (c *Coordinator) sessionFor(id string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		s = &session{state: StateIdle}
		c.sessions[id] = s
	}
	return s
}

// SessionState reports the current checkout state for a session. Sessions
// that were never touched report Idle.
func (c *Coordinator) SessionState(sessionID string) State {
	s := c.sessionFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Quote recomputes the authoritative pricing snapshot from the current cart
// and moves an idle session to PricingReady. It never disturbs a session
// with payment activity in progress.
func (c *Coordinator) Quote(ctx context.Context, sessionID string) (pricing.Snapshot, *cart.Cart, error) {
	crt, err := c.carts.Load(ctx, sessionID)
	if err != nil {
		return pricing.Snapshot{}, nil, errors.Wrap(err, "load cart")
	}
	snap := pricing.ComputeSnapshot(crt.Lines, crt.DiscountPercent, crt.ShippingCost)

	s := c.sessionFor(sessionID)
	s.mu.Lock()
	s.snapshot = snap
	if s.state == StateIdle || s.state == StateOrderPlaced {
		s.state = StatePricingReady
		s.placedOrderID = ""
	}
	s.mu.Unlock()

	return snap, crt, nil
}

// CreatePayment validates the checkout, builds the provider order-creation
// request, and performs the creation round trip. Only one attempt may be in
// flight per session.
func (c *Coordinator) CreatePayment(ctx context.Context, sessionID string, form PlaceOrderForm) (string, error) {
	s := c.sessionFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt.Active() {
		return "", ErrPaymentInFlight
	}

	crt, err := c.carts.Load(ctx, sessionID)
	if err != nil {
		return "", errors.Wrap(err, "load cart")
	}
	snap := pricing.ComputeSnapshot(crt.Lines, crt.DiscountPercent, crt.ShippingCost)

	// Validation happens before any network interaction.
	req, err := payment.BuildCreateRequest(snap, crt.Lines, form.FullName, form.providerAddress())
	if err != nil {
		return "", err
	}

	providerOrderID, err := c.provider.Create(ctx, *req)
	if err != nil {
		return "", errors.Wrap(err, "create provider order")
	}

	s.snapshot = snap
	s.payerName = form.FullName
	s.attempt = &payment.Attempt{
		ProviderOrderID: providerOrderID,
		Status:          payment.StatusCreated,
	}
	s.state = StatePaymentCreated
	c.lg.Info("payment order created",
		zap.String("session", sessionID),
		zap.String("provider_order_id", providerOrderID),
		zap.String("total", snap.Total.StringFixed(2)),
	)
	return providerOrderID, nil
}

// CapturePayment performs the capture round trip for the session's created
// attempt. On provider or transport failure the attempt is marked failed,
// the session returns to PricingReady, and payment.ErrCaptureFailed is
// surfaced with a retry path.
func (c *Coordinator) CapturePayment(ctx context.Context, sessionID string) (*payment.Attempt, error) {
	s := c.sessionFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attempt.Active() {
		return nil, ErrNoActivePayment
	}

	details, err := c.provider.Capture(ctx, s.attempt.ProviderOrderID)
	if err != nil {
		s.attempt.Status = payment.StatusFailed
		s.state = StatePricingReady
		c.lg.Warn("payment capture failed",
			zap.String("session", sessionID),
			zap.String("provider_order_id", s.attempt.ProviderOrderID),
			zap.Error(err),
		)
		return nil, errors.Wrap(payment.ErrCaptureFailed, err.Error())
	}

	s.attempt.Status = payment.StatusCaptured
	s.attempt.CapturedAmount = details.Amount
	s.attempt.CapturedAt = c.now()
	s.state = StatePaymentCaptured
	c.lg.Info("payment captured",
		zap.String("session", sessionID),
		zap.String("provider_order_id", s.attempt.ProviderOrderID),
		zap.String("amount", details.Amount.StringFixed(2)),
	)
	att := *s.attempt
	return &att, nil
}

// CancelPayment records a buyer cancellation. It is not an error: the
// session returns to PricingReady and a later CreatePayment starts a fresh
// attempt.
func (c *Coordinator) CancelPayment(_ context.Context, sessionID string) {
	s := c.sessionFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt == nil {
		return
	}
	if s.attempt.Status == payment.StatusCaptured {
		// Captured money with no order: keep the attempt for manual
		// reconciliation, never auto-refund.
		c.lg.Warn("cancel requested after capture; keeping captured attempt",
			zap.String("session", sessionID),
			zap.String("provider_order_id", s.attempt.ProviderOrderID),
		)
		return
	}
	s.attempt.Status = payment.StatusCancelled
	s.state = StatePricingReady
	c.lg.Info("payment cancelled by buyer",
		zap.String("session", sessionID),
		zap.String("provider_order_id", s.attempt.ProviderOrderID),
	)
}

// PlaceOrder validates the cart, the delivery form, and (for prepay methods)
// the captured attempt, then builds and appends the order record, clears the
// cart, and fires the best-effort notification. All validation happens
// before any persistence write, so no partial record is ever stored.
func (c *Coordinator) PlaceOrder(ctx context.Context, sessionID string, form PlaceOrderForm) (string, error) {
	s := c.sessionFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	// A session that already committed an order must not commit a second
	// one for the same checkout.
	if s.placedOrderID != "" {
		return "", errors.Wrapf(order.ErrDuplicateID, "order %s already placed", s.placedOrderID)
	}

	crt, err := c.carts.Load(ctx, sessionID)
	if err != nil {
		return "", errors.Wrap(err, "load cart")
	}
	if crt.Empty() {
		return "", ErrEmptyCart
	}
	if form.FullName == "" || form.Email == "" || form.Phone == "" || form.Address == "" {
		return "", ErrMissingFields
	}

	paymentID := ""
	if form.requiresPrepayment() {
		if s.attempt == nil || s.attempt.Status != payment.StatusCaptured {
			return "", ErrIncompletePayment
		}
		paymentID = s.attempt.ProviderOrderID
	}

	snap := pricing.ComputeSnapshot(crt.Lines, crt.DiscountPercent, crt.ShippingCost)

	// The id is generated lazily, immediately before the append, so failed
	// earlier attempts never burn ids that could collide on retry.
	id := c.newID()
	rec := order.NewRecord(id, c.now(), order.Pricing{
		Subtotal:        snap.Subtotal,
		DiscountPercent: snap.DiscountPercent,
		DiscountAmount:  snap.DiscountAmount,
		ShippingCost:    snap.ShippingCost,
		Total:           snap.Total,
	}, crt.Lines, form.shippingAddress(), form.PaymentMethod, paymentID)

	if err := c.orders.Append(ctx, rec); err != nil {
		return "", errors.Wrap(err, "append order")
	}

	s.placedOrderID = id
	s.state = StateOrderPlaced
	s.attempt = nil

	// Post-commit steps are best effort: the order is already placed.
	if err := c.carts.Clear(ctx, sessionID); err != nil {
		c.lg.Error("clear cart after order placement", zap.String("order_id", id), zap.Error(err))
	}
	if c.events != nil {
		c.events.PublishOrderEvent("placed", rec)
	}
	if c.notifier != nil {
		go func(n Notification) {
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := c.notifier.Notify(nctx, n); err != nil {
				c.lg.Error("order notification failed", zap.String("order_id", n.OrderID), zap.Error(err))
			}
		}(Notification{OrderID: id, Amount: snap.Total})
	}

	c.lg.Info("order placed",
		zap.String("session", sessionID),
		zap.String("order_id", id),
		zap.String("method", form.PaymentMethod),
		zap.String("total", snap.Total.StringFixed(2)),
	)
	return id, nil
}
