// Package promo defines promo codes that grant a cart-wide discount
// percent.
package promo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCode is returned when a code does not exist or is inactive.
var ErrInvalidCode = errors.New("invalid promo code")

// Code is one promo code and the discount percent it grants.
type Code struct {
	Code            string
	DiscountPercent decimal.Decimal
	Active          bool
}

// Repository is the promo code persistence contract.
type Repository interface {
	// FindByCode looks up an active code, case-insensitive. Returns
	// ErrInvalidCode when no active code matches.
	FindByCode(ctx context.Context, code string) (*Code, error)
	// InsertBatch inserts codes, skipping ones that already exist, and
	// reports how many were actually inserted. Used by bulk ingestion.
	InsertBatch(ctx context.Context, codes []Code) (int64, error)
}
