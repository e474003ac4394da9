package product

import "github.com/go-faster/errors"

// Size is a fixed size variant dimension. Products either carry a set of
// selectable sizes or none at all; an open string-keyed attribute bag is
// deliberately avoided so reconciliation stays exhaustive.
type Size uint8

const (
	// SizeNone means no size was (or can be) selected.
	SizeNone Size = iota
	SizeSmall
	SizeMedium
	SizeLarge
	SizeXLarge
)

// ErrUnknownSize is returned by ParseSize for unrecognized size names.
var ErrUnknownSize = errors.New("unknown size")

// String returns the canonical variant key for the size. SizeNone maps to
// the empty string so unsized products produce an empty variant key.
func (s Size) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	case SizeXLarge:
		return "xlarge"
	default:
		return ""
	}
}

// ParseSize converts a canonical variant key back into a Size.
func ParseSize(s string) (Size, error) {
	switch s {
	case "":
		return SizeNone, nil
	case "small":
		return SizeSmall, nil
	case "medium":
		return SizeMedium, nil
	case "large":
		return SizeLarge, nil
	case "xlarge":
		return SizeXLarge, nil
	default:
		return SizeNone, errors.Wrap(ErrUnknownSize, s)
	}
}
