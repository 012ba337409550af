package cart

import "github.com/angelmondragon/packfinderz-settlement/pkg/money"

// DefaultIntroDiscountCapCents is the ceiling of the first-order discount.
const DefaultIntroDiscountCapCents int64 = 500

// ComputeSubtotal sums unit price times stock-clamped quantity over every line.
// Zero-priced promotional lines contribute nothing.
func ComputeSubtotal(c *Cart) int64 {
	var total int64
	for _, line := range c.Lines() {
		total += line.GrossCents()
	}
	return total
}

// ApplyNewCustomerDiscount returns the first-order discount and whether the
// buyer is still eligible afterwards. The discount is min(capCents, rawSubtotal)
// and is consumed only by a non-empty subtotal; a buyer who already used it
// gets zero.
func ApplyNewCustomerDiscount(rawSubtotal int64, used bool, capCents int64) (discount int64, remainingEligible bool) {
	if used {
		return 0, false
	}
	if rawSubtotal <= 0 || capCents <= 0 {
		return 0, true
	}
	return money.Min(capCents, rawSubtotal), false
}
