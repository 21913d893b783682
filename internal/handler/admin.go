package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/narracraft/storefront/internal/domain/order"
)

// handleAdminListOrders returns every order, newest first. Clients without
// WebSocket support poll this endpoint instead of the event stream.
func (h *Handler) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	records, err := h.orders.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range records {
				encOrder(e, &records[i])
			}
		})
	})
}

// handleAdminAdvanceOrder moves an order one step along the fulfillment
// lifecycle. Tracking details in the body are applied only on the
// processing to shipped transition; advancing a delivered order changes
// nothing.
func (h *Handler) handleAdminAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var trackingNumber, carrier string
	if r.ContentLength != 0 {
		ok := decodeBody(w, r, func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "trackingNumber":
				trackingNumber, err = d.Str()
			case "carrier":
				carrier, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		})
		if !ok {
			return
		}
	}

	rec, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), func(rec *order.Record) {
		rec.Advance(trackingNumber, carrier)
	})
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}
	h.publish("status_changed", rec)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encOrder(e, rec)
	})
}

// handleAdminRemoveOrder deletes an order. Irreversible.
func (h *Handler) handleAdminRemoveOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}
	if err := h.orders.Remove(r.Context(), id); err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}
	h.publish("removed", rec)

	w.WriteHeader(http.StatusNoContent)
}
