package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// cartLineRequest is the shared body shape for cart line mutations.
type cartLineRequest struct {
	ProductID string
	Variant   product.Size
	Quantity  int
	HasQty    bool
}

func decodeCartLine(data []byte) (cartLineRequest, error) {
	var req cartLineRequest
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.ProductID, err = d.Str()
		case "variant":
			var raw string
			raw, err = d.Str()
			if err == nil {
				req.Variant, err = product.ParseSize(raw)
			}
		case "quantity":
			req.Quantity, err = d.Int()
			req.HasQty = err == nil
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return cartLineRequest{}, err
	}
	if req.ProductID == "" {
		return cartLineRequest{}, errors.New("productId is required")
	}
	return req, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartState(e, s.Cart.Snapshot())
	})
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := decodeCartLine(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed cart payload")
		return
	}
	if !req.HasQty {
		req.Quantity = 1
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	// Invalid additions (out of stock, unknown variant, non-positive
	// quantity) leave the cart unchanged; the response is the resulting
	// state either way.
	s.Cart.AddItem(*p, req.Variant, req.Quantity)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartState(e, s.Cart.Snapshot())
	})
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := decodeCartLine(data)
	if err != nil || !req.HasQty {
		writeError(w, http.StatusBadRequest, "malformed cart payload")
		return
	}

	s.Cart.SetQuantity(req.ProductID, req.Variant, req.Quantity)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartState(e, s.Cart.Snapshot())
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := decodeCartLine(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed cart payload")
		return
	}

	s.Cart.RemoveItem(req.ProductID, req.Variant)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartState(e, s.Cart.Snapshot())
	})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	s.Cart.Clear()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartState(e, s.Cart.Snapshot())
	})
}

func (h *Handler) toggleCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	s.Cart.ToggleVisibility()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartState(e, s.Cart.Snapshot())
	})
}
