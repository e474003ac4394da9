package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/product"
)

// schemaVersion is bumped when the serialized layout changes. Payloads with
// a different version and no migration path are discarded on load.
const schemaVersion = 1

// ErrSchemaVersion is returned when a stored payload carries an unsupported
// schema version.
var ErrSchemaVersion = errors.New("unsupported cart schema version")

// EncodeState serializes a cart state into the versioned wire form.
func EncodeState(s State) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Int(schemaVersion) })
		e.Field("open", func(e *jx.Encoder) { e.Bool(s.Open) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, li := range s.Items {
					encodeLineItem(e, li)
				}
			})
		})
	})
	return e.Bytes()
}

func encodeLineItem(e *jx.Encoder, li LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(li.ProductID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(li.Name) })
		e.Field("variant", func(e *jx.Encoder) { e.Str(li.Variant.String()) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
		e.Field("unit_price", func(e *jx.Encoder) { e.Str(li.UnitPrice.String()) })
	})
}

// DecodeState parses a serialized cart state. Any structural problem, bad
// field value, or version mismatch yields an error; callers fall back to an
// empty cart.
func DecodeState(data []byte) (State, error) {
	var (
		s       State
		version = -1
	)

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			version = v
			return nil
		case "open":
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "open")
			}
			s.Open = v
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				li, err := decodeLineItem(d)
				if err != nil {
					return err
				}
				s.Items = append(s.Items, li)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return State{}, errors.Wrap(err, "decode cart")
	}

	if version != schemaVersion {
		return State{}, errors.Wrapf(ErrSchemaVersion, "version %d", version)
	}

	// Reject payloads that violate store invariants instead of seeding the
	// store with an inconsistent state.
	seen := make(map[lineKey]struct{}, len(s.Items))
	for _, li := range s.Items {
		if li.Quantity < 1 {
			return State{}, errors.Errorf("line %s: quantity %d", li.ProductID, li.Quantity)
		}
		k := lineKey{li.ProductID, li.Variant}
		if _, dup := seen[k]; dup {
			return State{}, errors.Errorf("duplicate line %s/%s", li.ProductID, li.Variant)
		}
		seen[k] = struct{}{}
	}

	return s, nil
}

type lineKey struct {
	productID string
	variant   product.Size
}

func decodeLineItem(d *jx.Decoder) (LineItem, error) {
	var li LineItem
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Str()
			li.ProductID = v
			return err
		case "name":
			v, err := d.Str()
			li.Name = v
			return err
		case "variant":
			v, err := d.Str()
			if err != nil {
				return err
			}
			size, err := product.ParseSize(v)
			if err != nil {
				return err
			}
			li.Variant = size
			return nil
		case "quantity":
			v, err := d.Int()
			li.Quantity = v
			return err
		case "unit_price":
			v, err := d.Str()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(v)
			if err != nil {
				return errors.Wrap(err, "unit_price")
			}
			li.UnitPrice = price
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return LineItem{}, errors.Wrap(err, "decode line item")
	}
	return li, nil
}
