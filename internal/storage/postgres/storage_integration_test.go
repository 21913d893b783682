//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/narracraft/storefront/internal/domain/cart"
	"github.com/narracraft/storefront/internal/domain/order"
	"github.com/narracraft/storefront/internal/domain/promo"
)

func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

func testRecord(id string) *order.Record {
	return order.NewRecord(id, time.Now().UTC(),
		order.Pricing{
			Subtotal:        decimal.RequireFromString("91.98"),
			DiscountPercent: decimal.RequireFromString("10"),
			DiscountAmount:  decimal.RequireFromString("9.20"),
			ShippingCost:    decimal.RequireFromString("50.00"),
			Total:           decimal.RequireFromString("132.78"),
		},
		[]cart.Line{
			{ProductID: "macaron-mix", Name: "Macaron Mix of Five", UnitPrice: decimal.RequireFromString("8.00"), Quantity: 2},
		},
		order.ShippingAddress{
			Name:   "Juan dela Cruz",
			Email:  "juan@example.com",
			Phone:  "+639121541566",
			Street: "123 Rizal Ave",
			City:   "Manila",
		},
		"paypal", "PAY-123",
	)
}

func TestOrderStore_AppendAndFind(t *testing.T) {
	pool := setupTestPool(t)
	store := NewOrderStore(pool)
	ctx := context.Background()

	rec := testRecord("ord-1")
	require.NoError(t, store.Append(ctx, rec))

	got, err := store.FindByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, order.StatusProcessing, got.Status)
	assert.True(t, rec.Pricing.Total.Equal(got.Pricing.Total), "total: want %s got %s", rec.Pricing.Total, got.Pricing.Total)
	assert.True(t, rec.Pricing.Subtotal.Equal(got.Pricing.Subtotal))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "macaron-mix", got.Items[0].ProductID)
	assert.Equal(t, "Juan dela Cruz", got.ShippingAddress.Name)
	assert.Equal(t, "paypal", got.PaymentMethod)
	assert.Equal(t, "PAY-123", got.PaymentID)
}

func TestOrderStore_AppendDuplicate(t *testing.T) {
	pool := setupTestPool(t)
	store := NewOrderStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testRecord("ord-dup")))
	err := store.Append(ctx, testRecord("ord-dup"))
	assert.ErrorIs(t, err, order.ErrDuplicateID)

	// The stored record is untouched by the rejected append.
	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOrderStore_FindNotFound(t *testing.T) {
	pool := setupTestPool(t)
	store := NewOrderStore(pool)

	_, err := store.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderStore_UpdateStatusAdvances(t *testing.T) {
	pool := setupTestPool(t)
	store := NewOrderStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testRecord("ord-adv")))

	got, err := store.UpdateStatus(ctx, "ord-adv", func(r *order.Record) {
		r.Advance("TRK-9", "LBC")
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.Equal(t, "TRK-9", got.TrackingNumber)
	assert.Equal(t, "LBC", got.Carrier)

	got, err = store.UpdateStatus(ctx, "ord-adv", func(r *order.Record) {
		r.Advance("", "")
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, got.Status)
	// Tracking details survive the second advance.
	assert.Equal(t, "TRK-9", got.TrackingNumber)

	stored, err := store.FindByID(ctx, "ord-adv")
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, stored.Status)
}

func TestOrderStore_Remove(t *testing.T) {
	pool := setupTestPool(t)
	store := NewOrderStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testRecord("ord-rm")))
	require.NoError(t, store.Remove(ctx, "ord-rm"))

	_, err := store.FindByID(ctx, "ord-rm")
	assert.ErrorIs(t, err, order.ErrNotFound)

	assert.ErrorIs(t, store.Remove(ctx, "ord-rm"), order.ErrNotFound)
}

func TestOrderStore_ListNewestFirst(t *testing.T) {
	pool := setupTestPool(t)
	store := NewOrderStore(pool)
	ctx := context.Background()

	first := testRecord("ord-a")
	first.CreatedAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, testRecord("ord-b")))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ord-b", all[0].ID)
	assert.Equal(t, "ord-a", all[1].ID)
}

func TestCartStore_Lifecycle(t *testing.T) {
	pool := setupTestPool(t)
	store := NewCartStore(pool, decimal.RequireFromString("50.00"))
	ctx := context.Background()

	// Unknown session loads as an empty cart, not an error.
	c, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.True(t, c.ShippingCost.Equal(decimal.RequireFromString("50.00")))

	line := cart.Line{ProductID: "creme-brulee", Name: "Vanilla Bean Crème Brûlée", UnitPrice: decimal.RequireFromString("7.00"), Quantity: 2}
	require.NoError(t, store.UpsertLine(ctx, "sess-1", line))
	require.NoError(t, store.SetDiscount(ctx, "sess-1", decimal.RequireFromString("10")))

	c, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, c.DiscountPercent.Equal(decimal.RequireFromString("10")))

	// Quantity replacement, not accumulation.
	line.Quantity = 5
	require.NoError(t, store.UpsertLine(ctx, "sess-1", line))
	c, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)

	// Zero quantity removes the line.
	line.Quantity = 0
	require.NoError(t, store.UpsertLine(ctx, "sess-1", line))
	c, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	require.NoError(t, store.Clear(ctx, "sess-1"))
	c, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.True(t, c.DiscountPercent.IsZero())
}

func TestPromoStore_FindAndInsert(t *testing.T) {
	pool := setupTestPool(t)
	store := NewPromoStore(pool)
	ctx := context.Background()

	codes := []promo.Code{
		{Code: "HAPPYHOURS", DiscountPercent: decimal.RequireFromString("18"), Active: true},
		{Code: "DORMANT", DiscountPercent: decimal.RequireFromString("50"), Active: false},
	}
	inserted, err := store.InsertBatch(ctx, codes)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	// Re-inserting skips existing codes.
	inserted, err = store.InsertBatch(ctx, codes)
	require.NoError(t, err)
	assert.EqualValues(t, 0, inserted)

	got, err := store.FindByCode(ctx, "happyhours")
	require.NoError(t, err)
	assert.True(t, got.DiscountPercent.Equal(decimal.RequireFromString("18")))

	_, err = store.FindByCode(ctx, "DORMANT")
	assert.ErrorIs(t, err, promo.ErrInvalidCode)

	_, err = store.FindByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, promo.ErrInvalidCode)
}
