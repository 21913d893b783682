// Package handler exposes the storefront HTTP API: catalog and cart
// endpoints, the checkout payment protocol, order tracking, and the
// administrative fulfillment surface.
package handler

import (
	"net/http"

	"github.com/narracraft/storefront/internal/domain/cart"
	"github.com/narracraft/storefront/internal/domain/checkout"
	"github.com/narracraft/storefront/internal/domain/order"
	"github.com/narracraft/storefront/internal/domain/product"
	"github.com/narracraft/storefront/internal/domain/promo"
)

// Handler carries the domain dependencies for every route.
type Handler struct {
	products product.Repository
	carts    cart.Store
	promos   promo.Repository
	checkout *checkout.Coordinator
	orders   order.Store
	events   checkout.EventSink
	eventsWS http.Handler
}

// NewHandler constructs a Handler. events and eventsWS may be nil; the
// event stream route is then not registered.
func NewHandler(
	products product.Repository,
	carts cart.Store,
	promos promo.Repository,
	coordinator *checkout.Coordinator,
	orders order.Store,
	events checkout.EventSink,
	eventsWS http.Handler,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		promos:   promos,
		checkout: coordinator,
		orders:   orders,
		events:   events,
		eventsWS: eventsWS,
	}
}

// Register mounts every API route on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleListProducts)

	mux.HandleFunc("GET /api/cart", h.withSession(h.handleGetCart))
	mux.HandleFunc("POST /api/cart/items", h.withSession(h.handleAddCartItem))
	mux.HandleFunc("POST /api/cart/promo", h.withSession(h.handleApplyPromo))

	mux.HandleFunc("POST /api/checkout/payment", h.withSession(h.handleCreatePayment))
	mux.HandleFunc("POST /api/checkout/payment/capture", h.withSession(h.handleCapturePayment))
	mux.HandleFunc("POST /api/checkout/payment/cancel", h.withSession(h.handleCancelPayment))
	mux.HandleFunc("POST /api/checkout/order", h.withSession(h.handlePlaceOrder))

	mux.HandleFunc("GET /api/orders/{id}", h.handleGetOrder)

	mux.HandleFunc("GET /api/admin/orders", h.handleAdminListOrders)
	mux.HandleFunc("POST /api/admin/orders/{id}/advance", h.handleAdminAdvanceOrder)
	mux.HandleFunc("DELETE /api/admin/orders/{id}", h.handleAdminRemoveOrder)
	if h.eventsWS != nil {
		mux.Handle("GET /api/admin/orders/events", h.eventsWS)
	}
}

// withSession requires the X-Session-ID header and passes it through.
// The storefront trusts the client-held session id; there is no account
// system in front of it.
func (h *Handler) withSession(fn func(w http.ResponseWriter, r *http.Request, sessionID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "missing X-Session-ID header")
			return
		}
		fn(w, r, sessionID)
	}
}

// publish forwards an order event when an event sink is configured.
func (h *Handler) publish(kind string, rec *order.Record) {
	if h.events != nil {
		h.events.PublishOrderEvent(kind, rec)
	}
}
