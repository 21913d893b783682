package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/narracraft/storefront/internal/domain/checkout"
)

// decodeForm parses the delivery form shared by payment creation and order
// placement.
func decodeForm(w http.ResponseWriter, r *http.Request) (checkout.PlaceOrderForm, bool) {
	var form checkout.PlaceOrderForm
	ok := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "fullName":
			form.FullName, err = d.Str()
		case "email":
			form.Email, err = d.Str()
		case "phone":
			form.Phone, err = d.Str()
		case "address":
			form.Address, err = d.Str()
		case "deliveryInstructions":
			form.DeliveryInstructions, err = d.Str()
		case "city":
			form.City, err = d.Str()
		case "state":
			form.State, err = d.Str()
		case "postalCode":
			form.PostalCode, err = d.Str()
		case "country":
			form.Country, err = d.Str()
		case "paymentMethod":
			form.PaymentMethod, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return form, ok
}

// handleCreatePayment starts the prepayment round trip and returns the
// provider payment id for client-side approval.
func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request, sessionID string) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}

	paymentID, err := h.checkout.CreatePayment(r.Context(), sessionID, form)
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("paymentId", func(e *jx.Encoder) { e.Str(paymentID) })
		})
	})
}

// handleCapturePayment finalizes the approved payment attempt.
func (h *Handler) handleCapturePayment(w http.ResponseWriter, r *http.Request, sessionID string) {
	attempt, err := h.checkout.CapturePayment(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("paymentId", func(e *jx.Encoder) { e.Str(attempt.ProviderOrderID) })
			e.Field("status", func(e *jx.Encoder) { e.Str(string(attempt.Status)) })
			e.Field("capturedAmount", func(e *jx.Encoder) { encMoney(e, attempt.CapturedAmount) })
		})
	})
}

// handleCancelPayment records a buyer cancellation. Cancelling is never an
// error; the session simply returns to a retryable state.
func (h *Handler) handleCancelPayment(w http.ResponseWriter, r *http.Request, sessionID string) {
	h.checkout.CancelPayment(r.Context(), sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePlaceOrder commits the checkout into a persisted order.
func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request, sessionID string) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}

	orderID, err := h.checkout.PlaceOrder(r.Context(), sessionID, form)
	if err != nil {
		// An unclassified failure here is a persistence problem: validation
		// and payment outcomes all arrive as typed errors.
		respondDomainError(w, r, err, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(orderID) })
			e.Field("status", func(e *jx.Encoder) { e.Str("processing") })
		})
	})
}
