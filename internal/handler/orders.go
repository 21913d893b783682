package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/narracraft/storefront/internal/domain/order"
)

// handleGetOrder serves the buyer-facing tracking view.
func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	rec, err := h.orders.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encOrder(e, rec)
	})
}

func encOrder(e *jx.Encoder, rec *order.Record) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(rec.ID) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(rec.CreatedAt.UTC().Format(time.RFC3339)) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(rec.Status)) })
		if rec.TrackingNumber != "" {
			e.Field("trackingNumber", func(e *jx.Encoder) { e.Str(rec.TrackingNumber) })
			e.Field("carrier", func(e *jx.Encoder) { e.Str(rec.Carrier) })
		}
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(rec.PaymentMethod) })
		if rec.PaymentID != "" {
			e.Field("paymentId", func(e *jx.Encoder) { e.Str(rec.PaymentID) })
		}
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range rec.Items {
					encLine(e, l)
				}
			})
		})
		e.Field("pricing", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, rec.Pricing.Subtotal) })
				e.Field("discountPercent", func(e *jx.Encoder) { e.Num(jx.Num(rec.Pricing.DiscountPercent.String())) })
				e.Field("discountAmount", func(e *jx.Encoder) { encMoney(e, rec.Pricing.DiscountAmount) })
				e.Field("shippingCost", func(e *jx.Encoder) { encMoney(e, rec.Pricing.ShippingCost) })
				e.Field("total", func(e *jx.Encoder) { encMoney(e, rec.Pricing.Total) })
			})
		})
		e.Field("shippingAddress", func(e *jx.Encoder) {
			addr := rec.ShippingAddress
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(addr.Name) })
				e.Field("email", func(e *jx.Encoder) { e.Str(addr.Email) })
				e.Field("phone", func(e *jx.Encoder) { e.Str(addr.Phone) })
				e.Field("street", func(e *jx.Encoder) { e.Str(addr.Street) })
				if addr.AddressLine2 != "" {
					e.Field("addressLine2", func(e *jx.Encoder) { e.Str(addr.AddressLine2) })
				}
				if addr.City != "" {
					e.Field("city", func(e *jx.Encoder) { e.Str(addr.City) })
				}
				if addr.State != "" {
					e.Field("state", func(e *jx.Encoder) { e.Str(addr.State) })
				}
				if addr.PostalCode != "" {
					e.Field("zipCode", func(e *jx.Encoder) { e.Str(addr.PostalCode) })
				}
				if addr.Country != "" {
					e.Field("country", func(e *jx.Encoder) { e.Str(addr.Country) })
				}
			})
		})
	})
}
