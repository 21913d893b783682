package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/narracraft/storefront/internal/domain/checkout"
	"github.com/narracraft/storefront/internal/domain/order"
	"github.com/narracraft/storefront/internal/domain/payment"
	"github.com/narracraft/storefront/internal/domain/product"
	"github.com/narracraft/storefront/internal/domain/promo"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes the response built by fn and writes it with the status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	fn(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError responds with the API error envelope
// {"code": <status>, "message": <text>}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// decodeBody parses the request body as a JSON object, dispatching each key
// to fn. Unknown keys are skipped.
func decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) bool {
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), 4096)
	if err := d.Obj(fn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// encMoney writes a decimal as a JSON number with exactly 2 fractional
// digits.
func encMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

// respondDomainError maps a domain error to its HTTP outcome class and
// writes the error envelope. Unknown errors become fallbackStatus.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error, fallbackStatus int) {
	switch {
	// Validation: rejected before any side effect.
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrMissingFields):
		writeError(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, payment.ErrInvalidCheckoutState),
		errors.Is(err, payment.ErrInvalidAddress),
		errors.Is(err, promo.ErrInvalidCode):
		writeError(w, http.StatusUnprocessableEntity, rootMessage(err))

	// Payment: the session survives and the buyer may retry.
	case errors.Is(err, checkout.ErrIncompletePayment),
		errors.Is(err, payment.ErrCaptureFailed):
		writeError(w, http.StatusPaymentRequired, rootMessage(err))
	case errors.Is(err, checkout.ErrPaymentInFlight),
		errors.Is(err, checkout.ErrNoActivePayment):
		writeError(w, http.StatusConflict, rootMessage(err))

	// Persistence.
	case errors.Is(err, order.ErrDuplicateID):
		writeError(w, http.StatusConflict, "order already placed")
	case errors.Is(err, order.ErrNotFound), errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, rootMessage(err))

	default:
		var provErr *payment.ProviderError
		if errors.As(err, &provErr) {
			writeError(w, http.StatusPaymentRequired, provErr.Message)
			return
		}
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, fallbackStatus, http.StatusText(fallbackStatus))
	}
}

// rootMessage returns the message of the innermost error, dropping the
// wrapping context that only matters for logs.
func rootMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}
