package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no cart exists for a session.
var ErrNotFound = errors.New("cart not found")

// Line is a single cart line item. Prices are snapshotted at the time the
// item is added, so later catalog edits do not change an in-progress checkout.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Cart holds the full cart state for one checkout session.
type Cart struct {
	SessionID       string
	Lines           []Line
	DiscountPercent decimal.Decimal
	ShippingCost    decimal.Decimal
}

// Empty reports whether the cart has no line items.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Store provides session-keyed cart persistence. The checkout core only
// reads carts and clears them after a successful order; mutation of line
// items belongs to the storefront cart endpoints.
type Store interface {
	// Load returns the cart for the session. A session with no cart yet
	// yields an empty cart, not ErrNotFound.
	Load(ctx context.Context, sessionID string) (*Cart, error)
	// UpsertLine adds a line or replaces the quantity of an existing one.
	// A zero quantity removes the line.
	UpsertLine(ctx context.Context, sessionID string, line Line) error
	// SetDiscount sets the cart-wide discount percent (promo code result).
	SetDiscount(ctx context.Context, sessionID string, percent decimal.Decimal) error
	// Clear removes all lines and resets discount and shipping.
	Clear(ctx context.Context, sessionID string) error
}
