package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/verdant-storefront/internal/domain/product"
	"github.com/xenking/verdant-storefront/internal/domain/review"
)

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, rv := range reviews {
				encodeReview(e, rv)
			}
		})
	})
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if _, err := h.products.GetByID(r.Context(), productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	data, ok := readBody(w, r)
	if !ok {
		return
	}

	var (
		author string
		rating int
		body   string
	)
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "author":
			author, err = d.Str()
		case "rating":
			rating, err = d.Int()
		case "body":
			body, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed review payload")
		return
	}

	rv, err := h.reviews.Add(r.Context(), productID, author, rating, body)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrInvalidRating):
			writeError(w, http.StatusUnprocessableEntity, "rating must be between 1 and 5")
		case errors.Is(err, review.ErrEmptyAuthor):
			writeError(w, http.StatusUnprocessableEntity, "author is required")
		default:
			writeError(w, http.StatusInternalServerError, "failed to store review")
		}
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeReview(e, *rv)
	})
}
