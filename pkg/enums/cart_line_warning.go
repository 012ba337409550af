package enums

import "fmt"

// CartLineWarningType enumerates reasons a cart line was adjusted or dropped.
type CartLineWarningType string

const (
	CartLineWarningClampedToStock CartLineWarningType = "clamped_to_stock"
	CartLineWarningOutOfStock     CartLineWarningType = "out_of_stock"
	CartLineWarningNotAvailable   CartLineWarningType = "not_available"
	CartLineWarningSellerInvalid  CartLineWarningType = "seller_invalid"
	CartLineWarningUnknownTier    CartLineWarningType = "unknown_tier"
)

var validCartLineWarningTypes = []CartLineWarningType{
	CartLineWarningClampedToStock,
	CartLineWarningOutOfStock,
	CartLineWarningNotAvailable,
	CartLineWarningSellerInvalid,
	CartLineWarningUnknownTier,
}

// String implements fmt.Stringer.
func (c CartLineWarningType) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CartLineWarningType) IsValid() bool {
	for _, candidate := range validCartLineWarningTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartLineWarningType converts raw input into a CartLineWarningType.
func ParseCartLineWarningType(value string) (CartLineWarningType, error) {
	for _, candidate := range validCartLineWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart line warning type %q", value)
}
