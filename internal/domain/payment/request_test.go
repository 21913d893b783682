package payment

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narracraft/storefront/internal/domain/cart"
	"github.com/narracraft/storefront/internal/domain/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testAddr = ShippingAddress{Line1: "123 Narra St", City: "Quezon City", CountryCode: "PH"}

func snapshotFor(lines []cart.Line, pct, shipping string) pricing.Snapshot {
	return pricing.ComputeSnapshot(lines, dec(pct), dec(shipping))
}

func TestBuildCreateRequest_EmptyItems(t *testing.T) {
	snap := snapshotFor(nil, "0", "50")

	_, err := BuildCreateRequest(snap, nil, "Juan", testAddr)
	require.ErrorIs(t, err, ErrInvalidCheckoutState)
}

func TestBuildCreateRequest_ZeroTotal(t *testing.T) {
	lines := []cart.Line{{ProductID: "p1", Name: "Bowl", UnitPrice: dec("10.00"), Quantity: 1}}
	snap := snapshotFor(lines, "100", "0") // fully discounted

	_, err := BuildCreateRequest(snap, lines, "Juan", testAddr)
	require.ErrorIs(t, err, ErrInvalidCheckoutState)
}

func TestBuildCreateRequest_MissingAddressLine1(t *testing.T) {
	lines := []cart.Line{{ProductID: "p1", Name: "Bowl", UnitPrice: dec("10.00"), Quantity: 1}}
	snap := snapshotFor(lines, "0", "0")

	_, err := BuildCreateRequest(snap, lines, "Juan", ShippingAddress{City: "Manila"})
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestBuildCreateRequest_Breakdown(t *testing.T) {
	lines := []cart.Line{{ProductID: "p1", Name: "Tray", UnitPrice: dec("45.99"), Quantity: 2}}
	snap := snapshotFor(lines, "10", "50")

	req, err := BuildCreateRequest(snap, lines, "Juan dela Cruz", testAddr)
	require.NoError(t, err)

	assert.Equal(t, "91.98", req.Breakdown.ItemTotal.Value)
	require.NotNil(t, req.Breakdown.Shipping)
	assert.Equal(t, "50.00", req.Breakdown.Shipping.Value)
	require.NotNil(t, req.Breakdown.Discount)
	assert.Equal(t, "9.20", req.Breakdown.Discount.Value)
	assert.Equal(t, "132.78", req.Total.Value)
	assert.Equal(t, Currency, req.Total.CurrencyCode)

	require.Len(t, req.Items, 1)
	assert.Equal(t, "45.99", req.Items[0].UnitAmount.Value)
	assert.Equal(t, "2", req.Items[0].Quantity)
}

func TestBuildCreateRequest_OmitsZeroLines(t *testing.T) {
	lines := []cart.Line{{ProductID: "p1", Name: "Tray", UnitPrice: dec("20.00"), Quantity: 1}}
	snap := snapshotFor(lines, "0", "0")

	req, err := BuildCreateRequest(snap, lines, "Juan", testAddr)
	require.NoError(t, err)

	assert.Nil(t, req.Breakdown.Shipping)
	assert.Nil(t, req.Breakdown.Discount)
	assert.Equal(t, "20.00", req.Total.Value)
}

func TestBuildCreateRequest_TotalReconciles(t *testing.T) {
	// For a grid of shipping/discount combinations the provider invariant
	// item_total + shipping - discount == total must hold to the cent.
	lines := []cart.Line{
		{ProductID: "p1", Name: "Tray", UnitPrice: dec("12.49"), Quantity: 3},
		{ProductID: "p2", Name: "Coaster", UnitPrice: dec("0.99"), Quantity: 7},
	}
	for _, pct := range []string{"0", "3", "10", "33"} {
		for _, ship := range []string{"0", "19.75", "50"} {
			snap := snapshotFor(lines, pct, ship)
			if !snap.Total.IsPositive() {
				continue
			}
			req, err := BuildCreateRequest(snap, lines, "Juan", testAddr)
			require.NoError(t, err, "pct=%s ship=%s", pct, ship)

			sum := dec(req.Breakdown.ItemTotal.Value)
			if req.Breakdown.Shipping != nil {
				sum = sum.Add(dec(req.Breakdown.Shipping.Value))
			}
			if req.Breakdown.Discount != nil {
				sum = sum.Sub(dec(req.Breakdown.Discount.Value))
			}
			assert.Equal(t, sum.StringFixed(2), req.Total.Value, "pct=%s ship=%s", pct, ship)
		}
	}
}

func TestAttemptStatusTerminal(t *testing.T) {
	for s, terminal := range map[Status]bool{
		StatusCreated:   false,
		StatusApproved:  false,
		StatusCaptured:  true,
		StatusFailed:    true,
		StatusCancelled: true,
	} {
		assert.Equal(t, terminal, s.Terminal(), strconv.Quote(string(s)))
	}

	var nilAttempt *Attempt
	assert.False(t, nilAttempt.Active())
	assert.True(t, (&Attempt{Status: StatusCreated}).Active())
	assert.False(t, (&Attempt{Status: StatusCancelled}).Active())
}
