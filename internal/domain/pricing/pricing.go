// Package pricing derives authoritative monetary totals from cart contents.
// All computation is pure: the same lines, discount, and shipping always
// produce the same snapshot, and no input ever causes an error.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/narracraft/storefront/internal/domain/cart"
)

var hundred = decimal.NewFromInt(100)

// Snapshot is an immutable computed pricing result for one cart state.
// All fields are non-negative and rounded to 2 fractional digits, and
// Total == round2(Subtotal - DiscountAmount + ShippingCost).
type Snapshot struct {
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	ShippingCost    decimal.Decimal
	Total           decimal.Decimal
}

// ComputeSnapshot derives a Snapshot from cart lines, a cart-wide discount
// percent, and a shipping cost.
//
// Negative unit prices or quantities are coerced to zero rather than
// rejected; upstream validation owns rejecting bad carts, the engine only
// guarantees a finite, non-negative result. The subtotal is summed from raw
// line products and rounded once, so accumulated per-line rounding can never
// shift the final cents.
func ComputeSnapshot(lines []cart.Line, discountPercent, shippingCost decimal.Decimal) Snapshot {
	raw := decimal.Zero
	for _, l := range lines {
		price := l.UnitPrice
		if price.IsNegative() {
			price = decimal.Zero
		}
		qty := l.Quantity
		if qty < 0 {
			qty = 0
		}
		raw = raw.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}
	subtotal := round2(raw)

	if discountPercent.IsNegative() {
		discountPercent = decimal.Zero
	}
	discount := round2(subtotal.Mul(discountPercent).Div(hundred))
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	if shippingCost.IsNegative() {
		shippingCost = decimal.Zero
	}
	shipping := round2(shippingCost)

	total := round2(subtotal.Sub(discount).Add(shipping))
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Snapshot{
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		ShippingCost:    shipping,
		Total:           total,
	}
}

// round2 rounds half-up to 2 fractional digits. For the non-negative values
// the engine produces, decimal's round-half-away-from-zero is half-up.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
