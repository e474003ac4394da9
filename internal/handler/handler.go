// Package handler exposes the storefront API over net/http. Handlers decode
// requests, delegate to domain services, and map domain errors to JSON error
// bodies; no business logic lives here.
package handler

import (
	"net/http"

	"github.com/xenking/verdant-storefront/internal/domain/order"
	"github.com/xenking/verdant-storefront/internal/domain/product"
	"github.com/xenking/verdant-storefront/internal/domain/review"
	"github.com/xenking/verdant-storefront/internal/session"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	products     product.Repository
	reviews      *review.Service
	orders       *order.Service
	sessions     *session.Manager
	authn        *Authenticator
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	reviews *review.Service,
	orders *order.Service,
	sessions *session.Manager,
	authn *Authenticator,
) *Handler {
	return &Handler{
		products:     products,
		reviews:      reviews,
		orders:       orders,
		sessions:     sessions,
		authn:        authn,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register installs all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product", h.listProducts)
	mux.HandleFunc("GET /api/product/{id}", h.getProduct)
	mux.HandleFunc("GET /api/product/{id}/reviews", h.listReviews)
	mux.HandleFunc("POST /api/product/{id}/reviews", h.addReview)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items", h.setCartQuantity)
	mux.HandleFunc("DELETE /api/cart/items", h.removeCartItem)
	mux.HandleFunc("POST /api/cart/clear", h.clearCart)
	mux.HandleFunc("POST /api/cart/toggle", h.toggleCart)

	mux.HandleFunc("POST /api/checkout/start", h.startCheckout)
	mux.HandleFunc("GET /api/checkout", h.getCheckout)
	mux.HandleFunc("POST /api/checkout/decisions", h.confirmDecision)
	mux.HandleFunc("POST /api/checkout/contact", h.setContact)
	mux.HandleFunc("POST /api/checkout/submit", h.submitCheckout)
	mux.HandleFunc("POST /api/checkout/abandon", h.abandonCheckout)

	mux.HandleFunc("GET /api/order/{id}", h.lookupOrder)
}

// deviceID extracts and validates the opaque per-device cart identifier.
func deviceID(r *http.Request) (string, bool) {
	id := r.Header.Get("X-Device-ID")
	if len(id) == 0 || len(id) > 64 {
		return "", false
	}
	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7E {
			return "", false
		}
	}
	return id, true
}

// deviceSession resolves the request's cart/checkout session, writing a 400
// when the device header is missing or malformed.
func (h *Handler) deviceSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := deviceID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-Device-ID header")
		return nil, false
	}
	return h.sessions.Get(r.Context(), id), true
}
