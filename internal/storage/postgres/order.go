package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/narracraft/storefront/internal/domain/cart"
	"github.com/narracraft/storefront/internal/domain/order"
)

const (
	appendOrderSQL = `INSERT INTO orders
		(id, created_at, status, tracking_number, carrier, payment_method, payment_id,
		 subtotal, discount_percent, discount_amount, shipping_cost, total,
		 items, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	selectOrderColumns = `id, created_at, status, tracking_number, carrier, payment_method, payment_id,
		subtotal, discount_percent, discount_amount, shipping_cost, total,
		items, shipping_address`

	findOrderSQL = `SELECT ` + selectOrderColumns + ` FROM orders WHERE id = $1`

	lockOrderSQL = `SELECT ` + selectOrderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	updateOrderStatusSQL = `UPDATE orders
		SET status = $2, tracking_number = $3, carrier = $4 WHERE id = $1`

	removeOrderSQL = `DELETE FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + selectOrderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Monetary fields
// live in NUMERIC columns; line items and the shipping address are stored
// as JSONB documents.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Append persists a new record. A primary key conflict maps to
// order.ErrDuplicateID so the caller can distinguish it from infrastructure
// failure.
func (s *OrderStore) Append(ctx context.Context, rec *order.Record) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return errors.Wrap(err, "marshaling order items")
	}
	addrJSON, err := json.Marshal(rec.ShippingAddress)
	if err != nil {
		return errors.Wrap(err, "marshaling shipping address")
	}

	_, err = s.pool.Exec(ctx, appendOrderSQL,
		rec.ID, rec.CreatedAt, string(rec.Status), rec.TrackingNumber, rec.Carrier,
		rec.PaymentMethod, rec.PaymentID,
		rec.Pricing.Subtotal, rec.Pricing.DiscountPercent, rec.Pricing.DiscountAmount,
		rec.Pricing.ShippingCost, rec.Pricing.Total,
		itemsJSON, addrJSON,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return order.ErrDuplicateID
		}
		return errors.Wrapf(err, "appending order %q", rec.ID)
	}
	return nil
}

// FindByID returns the record for id, or order.ErrNotFound.
func (s *OrderStore) FindByID(ctx context.Context, id string) (*order.Record, error) {
	rows, err := s.pool.Query(ctx, findOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "finding order %q", id)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "finding order %q", id)
	}
	return &rec, nil
}

// UpdateStatus applies mutate inside a row-locked transaction, so two
// concurrent advances serialize instead of double-stepping the lifecycle.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, mutate func(*order.Record)) (*order.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, lockOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "locking order %q", id)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "locking order %q", id)
	}

	mutate(&rec)

	if _, err := tx.Exec(ctx, updateOrderStatusSQL,
		rec.ID, string(rec.Status), rec.TrackingNumber, rec.Carrier,
	); err != nil {
		return nil, errors.Wrapf(err, "updating order %q", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return &rec, nil
}

// Remove deletes the record, or reports order.ErrNotFound.
func (s *OrderStore) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, removeOrderSQL, id)
	if err != nil {
		return errors.Wrapf(err, "removing order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// List returns all records, newest first.
func (s *OrderStore) List(ctx context.Context) ([]order.Record, error) {
	rows, err := s.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Record, error) {
	var (
		rec       order.Record
		status    string
		itemsJSON []byte
		addrJSON  []byte
	)
	err := row.Scan(
		&rec.ID, &rec.CreatedAt, &status, &rec.TrackingNumber, &rec.Carrier,
		&rec.PaymentMethod, &rec.PaymentID,
		&rec.Pricing.Subtotal, &rec.Pricing.DiscountPercent, &rec.Pricing.DiscountAmount,
		&rec.Pricing.ShippingCost, &rec.Pricing.Total,
		&itemsJSON, &addrJSON,
	)
	if err != nil {
		return rec, err
	}
	rec.Status = order.Status(status)

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
			return rec, errors.Wrap(err, "unmarshaling order items")
		}
	} else {
		rec.Items = []cart.Line{}
	}
	if len(addrJSON) > 0 {
		if err := json.Unmarshal(addrJSON, &rec.ShippingAddress); err != nil {
			return rec, errors.Wrap(err, "unmarshaling shipping address")
		}
	}
	return rec, nil
}
