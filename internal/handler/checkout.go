package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/verdant-storefront/internal/domain/checkout"
	"github.com/xenking/verdant-storefront/internal/domain/order"
	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// checkoutStatus maps orchestrator errors to HTTP statuses.
func checkoutStatus(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "cart is empty"
	case errors.Is(err, checkout.ErrNotStarted):
		return http.StatusConflict, "checkout not started"
	case errors.Is(err, checkout.ErrPendingDecisions):
		return http.StatusConflict, "unresolved reconciliation conflicts"
	case errors.Is(err, checkout.ErrNoConflict):
		return http.StatusNotFound, "no conflict for line"
	case errors.Is(err, checkout.ErrBadResolution):
		return http.StatusUnprocessableEntity, "resolution not applicable to conflict"
	case errors.Is(err, checkout.ErrContactRequired):
		return http.StatusUnprocessableEntity, "contact email required"
	default:
		return http.StatusInternalServerError, "checkout failed"
	}
}

func writeCheckout(w http.ResponseWriter, v checkout.View, err error) {
	if err != nil {
		status, msg := checkoutStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCheckoutView(e, v)
	})
}

func (h *Handler) startCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}

	var prefill *order.Contact
	if id, ok := h.authn.Identify(r); ok {
		prefill = &order.Contact{Email: id.Email, Name: id.Name}
	}

	v, err := s.Checkout.Start(r.Context(), prefill)
	writeCheckout(w, v, err)
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	writeCheckout(w, s.Checkout.View(), nil)
}

func (h *Handler) confirmDecision(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}

	var (
		productID  string
		variant    product.Size
		resolution checkout.Resolution
	)
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "variant":
			var raw string
			raw, err = d.Str()
			if err == nil {
				variant, err = product.ParseSize(raw)
			}
		case "resolution":
			var raw string
			raw, err = d.Str()
			resolution = checkout.Resolution(raw)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil || productID == "" {
		writeError(w, http.StatusBadRequest, "malformed decision payload")
		return
	}

	v, err := s.Checkout.ConfirmDecision(productID, variant, resolution)
	writeCheckout(w, v, err)
}

func (h *Handler) setContact(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}

	var c order.Contact
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			c.Email, err = d.Str()
		case "name":
			c.Name, err = d.Str()
		case "address":
			c.Address, err = d.Str()
		case "city":
			c.City, err = d.Str()
		case "postalCode":
			c.PostalCode, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed contact payload")
		return
	}

	v, err := s.Checkout.SetContact(c)
	writeCheckout(w, v, err)
}

func (h *Handler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	v, err := s.Checkout.Submit(r.Context())
	writeCheckout(w, v, err)
}

func (h *Handler) abandonCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deviceSession(w, r)
	if !ok {
		return
	}
	s.Checkout.Abandon()
	writeCheckout(w, s.Checkout.View(), nil)
}
