// Package order defines the persisted order record, its fulfillment
// lifecycle, and the store contract the rest of the system writes through.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/narracraft/storefront/internal/domain/cart"
)

// Sentinel errors for order persistence.
var (
	// ErrDuplicateID is returned by Append when the order id already exists.
	ErrDuplicateID = errors.New("order id already exists")
	// ErrNotFound is returned when no order matches the given id.
	ErrNotFound = errors.New("order not found")
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"

	// StatusCompleted is the administrative alias for delivered, accepted on
	// input and normalized before persistence.
	StatusCompleted Status = "completed"
)

// Normalize maps the administrative alias onto the canonical status.
func (s Status) Normalize() Status {
	if s == StatusCompleted {
		return StatusDelivered
	}
	return s
}

// Terminal reports whether the status has no further self-initiated
// transition.
func (s Status) Terminal() bool {
	return s.Normalize() == StatusDelivered
}

// Valid reports whether s is a known status (alias included).
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted:
		return true
	}
	return false
}

// Pricing is the snapshot of the totals the order was placed with.
type Pricing struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Total           decimal.Decimal `json:"total"`
}

// ShippingAddress is the delivery destination captured from the checkout
// form, stored verbatim with the order.
type ShippingAddress struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Street       string `json:"street"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"zipCode,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Record is a placed order. Created exactly once per successful checkout;
// immutable afterwards except Status, TrackingNumber, and Carrier, which are
// mutated only through the fulfillment workflow.
type Record struct {
	ID              string
	CreatedAt       time.Time
	Pricing         Pricing
	Items           []cart.Line
	ShippingAddress ShippingAddress
	PaymentMethod   string
	PaymentID       string // provider order id; empty for cash on delivery
	Status          Status
	TrackingNumber  string
	Carrier         string
}

// Advance moves the record one step along processing -> shipped -> delivered.
// Advancing a terminal record is a no-op, so repeated administrative clicks
// cannot corrupt state. Tracking details are applied only on the
// processing -> shipped transition and stay empty while processing.
func (r *Record) Advance(trackingNumber, carrier string) {
	switch r.Status.Normalize() {
	case StatusProcessing:
		r.Status = StatusShipped
		r.TrackingNumber = trackingNumber
		r.Carrier = carrier
	case StatusShipped:
		r.Status = StatusDelivered
	}
}

// Store is the order persistence contract. Append is reserved for the
// checkout coordinator; UpdateStatus and Remove belong to the fulfillment
// workflow; FindByID serves the tracking view.
type Store interface {
	// Append persists a new record atomically. It fails with ErrDuplicateID
	// when the id already exists, leaving the stored record untouched.
	Append(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id string) (*Record, error)
	// UpdateStatus applies mutate to the current record inside a single
	// atomic read-modify-write and returns the updated record.
	UpdateStatus(ctx context.Context, id string, mutate func(*Record)) (*Record, error)
	// Remove deletes the record. Irreversible.
	Remove(ctx context.Context, id string) error
	// List returns all records, newest first.
	List(ctx context.Context) ([]Record, error)
}

// NewRecord stamps a fresh processing record at the moment of placement.
func NewRecord(id string, now time.Time, p Pricing, items []cart.Line, addr ShippingAddress, method, paymentID string) *Record {
	return &Record{
		ID:              id,
		CreatedAt:       now,
		Pricing:         p,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   method,
		PaymentID:       paymentID,
		Status:          StatusProcessing,
	}
}
