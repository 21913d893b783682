package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/narracraft/storefront/internal/domain/promo"
)

const (
	getPromoByCodeSQL = `SELECT code, discount_percent, active
		FROM promo_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	insertPromoSQL = `INSERT INTO promo_codes (code, discount_percent, active)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING`
)

var _ promo.Repository = (*PromoStore)(nil)

// PromoStore implements promo.Repository backed by PostgreSQL.
type PromoStore struct {
	pool *pgxpool.Pool
}

// NewPromoStore returns a PromoStore that uses the given pool.
func NewPromoStore(pool *pgxpool.Pool) *PromoStore {
	return &PromoStore{pool: pool}
}

// FindByCode looks up an active code, case-insensitive. Returns
// promo.ErrInvalidCode when no active code matches.
func (s *PromoStore) FindByCode(ctx context.Context, code string) (*promo.Code, error) {
	rows, err := s.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "finding promo code %q", code)
	}

	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (promo.Code, error) {
		var c promo.Code
		err := row.Scan(&c.Code, &c.DiscountPercent, &c.Active)
		return c, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidCode
		}
		return nil, errors.Wrapf(err, "finding promo code %q", code)
	}
	return &c, nil
}

// InsertBatch inserts codes in a single pipelined batch, skipping codes that
// already exist, and reports the number actually inserted.
func (s *PromoStore) InsertBatch(ctx context.Context, codes []promo.Code) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, c := range codes {
		batch.Queue(insertPromoSQL, c.Code, c.DiscountPercent, c.Active)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range codes {
		tag, err := results.Exec()
		if err != nil {
			return inserted, errors.Wrap(err, "inserting promo codes")
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
