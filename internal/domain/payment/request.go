package payment

import (
	"github.com/shopspring/decimal"

	"github.com/narracraft/storefront/internal/domain/cart"
	"github.com/narracraft/storefront/internal/domain/pricing"
)

// Money is a provider-facing amount: a fixed-point string with exactly 2
// fractional digits plus the currency code.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

func money(d decimal.Decimal) Money {
	return Money{CurrencyCode: Currency, Value: d.StringFixed(2)}
}

// ShippingAddress is the delivery destination sent to the provider.
// Line1 is mandatory; everything else is optional.
type ShippingAddress struct {
	Line1       string `json:"address_line_1"`
	Line2       string `json:"address_line_2,omitempty"`
	City        string `json:"admin_area_2,omitempty"`
	State       string `json:"admin_area_1,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// RequestItem is one purchase-unit line item in the provider request.
type RequestItem struct {
	Name       string `json:"name"`
	UnitAmount Money  `json:"unit_amount"`
	Quantity   string `json:"quantity"`
}

// Breakdown itemizes how the purchase amount decomposes. Shipping and
// Discount are present only when non-zero.
type Breakdown struct {
	ItemTotal Money  `json:"item_total"`
	Shipping  *Money `json:"shipping,omitempty"`
	Discount  *Money `json:"discount,omitempty"`
}

// CreateRequest is the complete provider order-creation payload.
type CreateRequest struct {
	Total     Money
	Breakdown Breakdown
	Items     []RequestItem
	PayerName string
	Address   ShippingAddress
}

// BuildCreateRequest turns a pricing snapshot and cart lines into a provider
// order-creation request. It is pure transformation plus validation and must
// be called before any network interaction.
//
// The request total is recomputed as item_total + shipping - discount so the
// provider-side sum always reconciles to the cent. Rounding drift between the
// snapshot total and the line-item sum is resolved by adjusting the total,
// never the line items.
func BuildCreateRequest(snap pricing.Snapshot, lines []cart.Line, payerName string, addr ShippingAddress) (*CreateRequest, error) {
	if len(lines) == 0 || !snap.Total.IsPositive() {
		return nil, ErrInvalidCheckoutState
	}
	if addr.Line1 == "" {
		return nil, ErrInvalidAddress
	}

	items := make([]RequestItem, len(lines))
	itemTotal := decimal.Zero
	for i, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		itemTotal = itemTotal.Add(l.UnitPrice.Mul(qty))
		items[i] = RequestItem{
			Name:       l.Name,
			UnitAmount: money(l.UnitPrice),
			Quantity:   qty.String(),
		}
	}
	itemTotal = itemTotal.Round(2)

	bd := Breakdown{ItemTotal: money(itemTotal)}
	computed := itemTotal
	if snap.ShippingCost.IsPositive() {
		m := money(snap.ShippingCost)
		bd.Shipping = &m
		computed = computed.Add(snap.ShippingCost)
	}
	if snap.DiscountAmount.IsPositive() {
		m := money(snap.DiscountAmount)
		bd.Discount = &m
		computed = computed.Sub(snap.DiscountAmount)
	}

	return &CreateRequest{
		Total:     money(computed.Round(2)),
		Breakdown: bd,
		Items:     items,
		PayerName: payerName,
		Address:   addr,
	}, nil
}
