package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/verdant-storefront/internal/domain/order"
)

// lookupOrder resolves an order by ID plus the contact email it was placed
// under. The email acts as a weak proof of ownership for guest checkouts.
func (h *Handler) lookupOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	o, err := h.orders.Lookup(r.Context(), id, email)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}
