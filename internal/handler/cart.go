package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/narracraft/storefront/internal/domain/cart"
	"github.com/narracraft/storefront/internal/domain/pricing"
	"github.com/narracraft/storefront/internal/domain/product"
)

// handleListProducts returns the full catalog.
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encProduct(e, p)
			}
		})
	})
}

// handleGetCart returns the cart with its authoritative pricing snapshot.
// The snapshot is recomputed from scratch on every call; the client never
// supplies totals.
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request, sessionID string) {
	snap, crt, err := h.checkout.Quote(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encQuote(e, string(h.checkout.SessionState(sessionID)), crt, snap)
	})
}

// handleAddCartItem adds a catalog product to the cart, snapshotting its
// current price. A zero quantity removes the line.
func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request, sessionID string) {
	var (
		productID string
		quantity  int
	)
	ok := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if !ok {
		return
	}
	if productID == "" || quantity < 0 {
		writeError(w, http.StatusBadRequest, "productId and a non-negative quantity are required")
		return
	}

	p, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	line := cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
	}
	if err := h.carts.UpsertLine(r.Context(), sessionID, line); err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	h.handleGetCart(w, r, sessionID)
}

// handleApplyPromo resolves a promo code to its discount percent and applies
// it to the cart.
func (h *Handler) handleApplyPromo(w http.ResponseWriter, r *http.Request, sessionID string) {
	var code string
	ok := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			code, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if !ok {
		return
	}

	code = strings.TrimSpace(code)
	if code == "" {
		writeError(w, http.StatusBadRequest, "promo code is required")
		return
	}

	promoCode, err := h.promos.FindByCode(r.Context(), code)
	if err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}
	if err := h.carts.SetDiscount(r.Context(), sessionID, promoCode.DiscountPercent); err != nil {
		respondDomainError(w, r, err, http.StatusInternalServerError)
		return
	}

	h.handleGetCart(w, r, sessionID)
}

func encProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encMoney(e, p.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		if p.ImageURL != "" {
			e.Field("imageUrl", func(e *jx.Encoder) { e.Str(p.ImageURL) })
		}
	})
}

func encQuote(e *jx.Encoder, state string, crt *cart.Cart, snap pricing.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("sessionState", func(e *jx.Encoder) { e.Str(state) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range crt.Lines {
					encLine(e, l)
				}
			})
		})
		e.Field("pricing", func(e *jx.Encoder) { encPricing(e, snap) })
	})
}

func encLine(e *jx.Encoder, l cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
		e.Field("unitPrice", func(e *jx.Encoder) { encMoney(e, l.UnitPrice) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
	})
}

func encPricing(e *jx.Encoder, snap pricing.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, snap.Subtotal) })
		e.Field("discountPercent", func(e *jx.Encoder) { e.Num(jx.Num(snap.DiscountPercent.String())) })
		e.Field("discountAmount", func(e *jx.Encoder) { encMoney(e, snap.DiscountAmount) })
		e.Field("shippingCost", func(e *jx.Encoder) { encMoney(e, snap.ShippingCost) })
		e.Field("total", func(e *jx.Encoder) { encMoney(e, snap.Total) })
	})
}
