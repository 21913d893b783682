// Package checkout sequences pricing, payment, and order persistence into
// the externally observable checkout protocol. Each session walks
// Idle -> PricingReady -> PaymentCreated -> PaymentCaptured -> OrderPlaced,
// with payment failure and cancellation branching back to PricingReady.
package checkout

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/narracraft/storefront/internal/domain/order"
	"github.com/narracraft/storefront/internal/domain/payment"
)

// State is the coordinator's per-session checkout state.
type State string

const (
	StateIdle            State = "idle"
	StatePricingReady    State = "pricing_ready"
	StatePaymentCreated  State = "payment_created"
	StatePaymentCaptured State = "payment_captured"
	StateOrderPlaced     State = "order_placed"
)

// Payment methods accepted by the storefront.
const (
	MethodPayPal         = "paypal"
	MethodCashOnDelivery = "cod"
)

// Sentinel errors surfaced by the coordinator. The HTTP layer maps these to
// the four user-visible outcome classes (validation, payment, persistence,
// suppressed notification).
var (
	// ErrEmptyCart rejects checkout operations on a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingFields rejects order placement with an incomplete delivery form.
	ErrMissingFields = errors.New("missing required delivery fields")
	// ErrIncompletePayment rejects placement of a prepay order whose payment
	// attempt is not captured.
	ErrIncompletePayment = errors.New("payment not captured")
	// ErrPaymentInFlight rejects a second payment creation while one attempt
	// is still active.
	ErrPaymentInFlight = errors.New("a payment attempt is already in flight")
	// ErrNoActivePayment rejects capture or cancel without a created attempt.
	ErrNoActivePayment = errors.New("no active payment attempt")
)

// PlaceOrderForm carries the delivery form data submitted at placement.
type PlaceOrderForm struct {
	FullName             string
	Email                string
	Phone                string
	Address              string
	DeliveryInstructions string
	City                 string
	State                string
	PostalCode           string
	Country              string
	PaymentMethod        string // MethodPayPal or MethodCashOnDelivery
}

// requiresPrepayment reports whether the selected method must be captured
// before the order may be placed. Unknown methods default to prepay, the
// safe direction.
func (f PlaceOrderForm) requiresPrepayment() bool {
	return f.PaymentMethod != MethodCashOnDelivery
}

// shippingAddress converts the form into the persisted address shape.
func (f PlaceOrderForm) shippingAddress() order.ShippingAddress {
	country := f.Country
	if country == "" {
		country = "Philippines"
	}
	return order.ShippingAddress{
		Name:         f.FullName,
		Email:        f.Email,
		Phone:        f.Phone,
		Street:       f.Address,
		AddressLine2: f.DeliveryInstructions,
		City:         f.City,
		State:        f.State,
		PostalCode:   f.PostalCode,
		Country:      country,
	}
}

// providerAddress converts the form into the provider-facing address shape.
func (f PlaceOrderForm) providerAddress() payment.ShippingAddress {
	cc := "PH"
	if len(f.Country) >= 2 {
		cc = strings.ToUpper(f.Country[:2])
	}
	return payment.ShippingAddress{
		Line1:       f.Address,
		Line2:       f.DeliveryInstructions,
		City:        f.City,
		State:       f.State,
		PostalCode:  f.PostalCode,
		CountryCode: cc,
	}
}

// Notification is the fire-and-forget order announcement payload.
type Notification struct {
	OrderID string
	Amount  decimal.Decimal
}
