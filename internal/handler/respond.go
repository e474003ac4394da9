package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/cart"
	"github.com/xenking/verdant-storefront/internal/domain/checkout"
	"github.com/xenking/verdant-storefront/internal/domain/order"
	"github.com/xenking/verdant-storefront/internal/domain/product"
	"github.com/xenking/verdant-storefront/internal/domain/reconcile"
	"github.com/xenking/verdant-storefront/internal/domain/review"
)

// maxBodyBytes bounds request bodies; cart and checkout payloads are small.
const maxBodyBytes = 1 << 20

// readBody drains the request body up to maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return nil, false
	}
	return data, true
}

// writeJSON encodes a response body with jx and writes it with the status.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the canonical {"code","message"} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Float64(d.InexactFloat64())
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("inStock", func(e *jx.Encoder) { e.Bool(p.InStock) })
		e.Field("sizes", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range p.Sizes {
					e.Str(s.String())
				}
			})
		})
		e.Field("image", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("thumbnail", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Thumbnail)) })
				e.Field("mobile", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Mobile)) })
				e.Field("tablet", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Tablet)) })
				e.Field("desktop", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Desktop)) })
			})
		})
	})
}

// imageURL prepends the configured base URL to relative image paths.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" {
		return path
	}
	return h.imageBaseURL + "/" + path
}

func encodeCartState(e *jx.Encoder, s cart.State) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("open", func(e *jx.Encoder) { e.Bool(s.Open) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, s.Subtotal()) })
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(s.ItemCount()) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, li := range s.Items {
					encodeLineItem(e, li)
				}
			})
		})
	})
}

func encodeLineItem(e *jx.Encoder, li cart.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(li.ProductID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(li.Name) })
		e.Field("variant", func(e *jx.Encoder) { e.Str(li.Variant.String()) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
		e.Field("unitPrice", func(e *jx.Encoder) { encodeDecimal(e, li.UnitPrice) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, li.Total()) })
	})
}

func encodeReconciliation(e *jx.Encoder, r reconcile.Result) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("clean", func(e *jx.Encoder) { e.Bool(r.Clean()) })
		e.Field("conflicts", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range r.Conflicts() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(l.Item.ProductID) })
						e.Field("variant", func(e *jx.Encoder) { e.Str(l.Item.Variant.String()) })
						e.Field("outcome", func(e *jx.Encoder) { e.Str(l.Outcome.String()) })
						if l.Outcome == reconcile.PriceChanged {
							e.Field("oldPrice", func(e *jx.Encoder) { encodeDecimal(e, l.OldPrice) })
							e.Field("newPrice", func(e *jx.Encoder) { encodeDecimal(e, l.NewPrice) })
						}
					})
				}
			})
		})
	})
}

func encodeCheckoutView(e *jx.Encoder, v checkout.View) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("phase", func(e *jx.Encoder) { e.Str(string(v.Phase)) })
		e.Field("reconciliation", func(e *jx.Encoder) { encodeReconciliation(e, v.Reconciliation) })
		// A prefilled contact is shown even before the shopper confirms it.
		if v.HasContact || v.Contact.Email != "" {
			e.Field("contact", func(e *jx.Encoder) { encodeContact(e, v.Contact) })
		}
		if v.Order != nil {
			e.Field("order", func(e *jx.Encoder) { encodeOrder(e, *v.Order) })
		}
		if v.SubmitErr != "" {
			e.Field("error", func(e *jx.Encoder) { e.Str(v.SubmitErr) })
		}
	})
}

func encodeContact(e *jx.Encoder, c order.Contact) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("address", func(e *jx.Encoder) { e.Str(c.Address) })
		e.Field("city", func(e *jx.Encoder) { e.Str(c.City) })
		e.Field("postalCode", func(e *jx.Encoder) { e.Str(c.PostalCode) })
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, o.Subtotal) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("variant", func(e *jx.Encoder) { e.Str(it.Variant) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { encodeDecimal(e, it.UnitPrice) })
					})
				}
			})
		})
		e.Field("contact", func(e *jx.Encoder) { encodeContact(e, o.Contact) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}

func encodeReview(e *jx.Encoder, rv review.Review) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(rv.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(rv.ProductID) })
		e.Field("author", func(e *jx.Encoder) { e.Str(rv.Author) })
		e.Field("rating", func(e *jx.Encoder) { e.Int(rv.Rating) })
		e.Field("body", func(e *jx.Encoder) { e.Str(rv.Body) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(rv.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}
