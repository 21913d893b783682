// Package payment models the two-phase external payment protocol: a provider
// order is created from locally computed totals, then captured once the buyer
// approves it. The package itself never touches the network; the Provider
// adapter owns the round trips.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Currency is the single ISO currency code used across the whole system.
const Currency = "PHP"

// Sentinel errors for checkout preconditions and protocol failures.
var (
	// ErrInvalidCheckoutState is returned when a payment order is requested
	// for an empty cart or a non-positive total.
	ErrInvalidCheckoutState = errors.New("invalid checkout state: empty cart or zero total")
	// ErrInvalidAddress is returned when the shipping address lacks the
	// minimum required fields.
	ErrInvalidAddress = errors.New("shipping address requires at least address line 1")
	// ErrCaptureFailed is returned when the provider rejects or fails the
	// capture round trip. The attempt is marked failed and may be retried
	// with a fresh attempt.
	ErrCaptureFailed = errors.New("payment capture failed")
	// ErrCancelled marks a buyer-initiated cancellation. It is recorded on
	// the attempt but never surfaced to the user as an error.
	ErrCancelled = errors.New("payment cancelled by buyer")
)

// ProviderError is a rejection returned by the payment provider itself, as
// opposed to a transport failure reaching it.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected request: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Status enumerates the lifecycle of a payment attempt.
type Status string

const (
	StatusCreated   Status = "created"
	StatusApproved  Status = "approved"
	StatusCaptured  Status = "captured"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status permits no further transition. A new
// attempt supersedes a terminal one; at most one non-terminal attempt exists
// per checkout session.
func (s Status) Terminal() bool {
	switch s {
	case StatusCaptured, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Attempt tracks one provider payment order through create and capture.
type Attempt struct {
	ProviderOrderID string
	Status          Status
	CapturedAmount  decimal.Decimal
	CapturedAt      time.Time
}

// Active reports whether this attempt is still in flight.
func (a *Attempt) Active() bool {
	return a != nil && !a.Status.Terminal()
}

// CaptureDetails is the provider's response to a capture call.
type CaptureDetails struct {
	CaptureID string
	Amount    decimal.Decimal
	Status    string
}

// Provider is the external payment gateway adapter. Implementations must
// return *ProviderError for provider-side rejections and plain wrapped errors
// for network failures so callers can distinguish the two.
type Provider interface {
	Create(ctx context.Context, req CreateRequest) (providerOrderID string, err error)
	Capture(ctx context.Context, providerOrderID string) (*CaptureDetails, error)
}
