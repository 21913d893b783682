package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/narracraft/storefront/internal/domain/cart"
)

const (
	getCartSQL = `SELECT discount_percent, shipping_cost FROM carts WHERE session_id = $1`

	ensureCartSQL = `INSERT INTO carts (session_id, discount_percent, shipping_cost)
		VALUES ($1, 0, $2)
		ON CONFLICT (session_id) DO NOTHING`

	listCartItemsSQL = `SELECT product_id, name, unit_price, quantity
		FROM cart_items WHERE session_id = $1 ORDER BY added_at, product_id`

	upsertCartItemSQL = `INSERT INTO cart_items (session_id, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET name = EXCLUDED.name, unit_price = EXCLUDED.unit_price, quantity = EXCLUDED.quantity`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE session_id = $1 AND product_id = $2`

	setCartDiscountSQL = `UPDATE carts SET discount_percent = $2 WHERE session_id = $1`

	clearCartItemsSQL = `DELETE FROM cart_items WHERE session_id = $1`
	clearCartSQL      = `DELETE FROM carts WHERE session_id = $1`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL. A session with no
// cart row yet loads as an empty cart with the default shipping cost.
type CartStore struct {
	pool            *pgxpool.Pool
	defaultShipping decimal.Decimal
}

// NewCartStore returns a CartStore that uses the given pool. New carts are
// created with the given flat shipping cost.
func NewCartStore(pool *pgxpool.Pool, defaultShipping decimal.Decimal) *CartStore {
	return &CartStore{pool: pool, defaultShipping: defaultShipping}
}

// Load returns the full cart for the session.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	c := &cart.Cart{
		SessionID:    sessionID,
		ShippingCost: s.defaultShipping,
	}

	err := s.pool.QueryRow(ctx, getCartSQL, sessionID).Scan(&c.DiscountPercent, &c.ShippingCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, nil
		}
		return nil, errors.Wrapf(err, "loading cart for session %q", sessionID)
	}

	rows, err := s.pool.Query(ctx, listCartItemsSQL, sessionID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading cart items for session %q", sessionID)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.ProductID, &l.Name, &l.UnitPrice, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading cart items for session %q", sessionID)
	}
	c.Lines = lines
	return c, nil
}

// UpsertLine adds a line or replaces an existing one. A zero quantity
// removes the line instead.
func (s *CartStore) UpsertLine(ctx context.Context, sessionID string, line cart.Line) error {
	if line.Quantity <= 0 {
		if _, err := s.pool.Exec(ctx, deleteCartItemSQL, sessionID, line.ProductID); err != nil {
			return errors.Wrapf(err, "removing cart item %q", line.ProductID)
		}
		return nil
	}

	if _, err := s.pool.Exec(ctx, ensureCartSQL, sessionID, s.defaultShipping); err != nil {
		return errors.Wrapf(err, "ensuring cart for session %q", sessionID)
	}
	if _, err := s.pool.Exec(ctx, upsertCartItemSQL,
		sessionID, line.ProductID, line.Name, line.UnitPrice, line.Quantity,
	); err != nil {
		return errors.Wrapf(err, "upserting cart item %q", line.ProductID)
	}
	return nil
}

// SetDiscount sets the cart-wide discount percent.
func (s *CartStore) SetDiscount(ctx context.Context, sessionID string, percent decimal.Decimal) error {
	if _, err := s.pool.Exec(ctx, ensureCartSQL, sessionID, s.defaultShipping); err != nil {
		return errors.Wrapf(err, "ensuring cart for session %q", sessionID)
	}
	if _, err := s.pool.Exec(ctx, setCartDiscountSQL, sessionID, percent); err != nil {
		return errors.Wrapf(err, "setting discount for session %q", sessionID)
	}
	return nil
}

// Clear removes the cart and all of its items.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, clearCartItemsSQL, sessionID); err != nil {
		return errors.Wrapf(err, "clearing cart items for session %q", sessionID)
	}
	if _, err := s.pool.Exec(ctx, clearCartSQL, sessionID); err != nil {
		return errors.Wrapf(err, "clearing cart for session %q", sessionID)
	}
	return nil
}
