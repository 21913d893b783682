// Package product defines the catalog entry backing cart lines.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no product matches the given id.
var ErrNotFound = errors.New("product not found")

// Product is one catalog entry. Price is the current unit price; carts
// snapshot it at add time.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// Repository is the catalog persistence contract.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// Upsert inserts or replaces a catalog entry. Used by seeding.
	Upsert(ctx context.Context, p Product) error
}
