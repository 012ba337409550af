package settlement

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/cart"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Payout is the amount owed to one seller.
type Payout struct {
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
}

// Split is the seller-side partition of a cart.
type Split struct {
	Payouts     []Payout `json:"payouts"`
	Unallocated int64    `json:"unallocated_cents"`
	Excluded    []string `json:"excluded_lines,omitempty"`
}

// SplitPayouts gives each seller the gross of their own lines, in order of
// first appearance. Fees and buyer discounts never reduce a payout. Lines
// without a resolvable seller are excluded and their gross is reported as
// Unallocated. Zero-priced promotional lines are skipped.
func SplitPayouts(lines []cart.Line) Split {
	var (
		split Split
		index = map[uuid.UUID]int{}
	)
	for _, line := range lines {
		gross := line.GrossCents()
		if gross == 0 && line.Promotional {
			continue
		}
		if !line.HasSeller() {
			split.Excluded = append(split.Excluded, line.Key)
			split.Unallocated += gross
			continue
		}
		if gross == 0 {
			continue
		}
		if i, ok := index[line.SellerID]; ok {
			split.Payouts[i].AmountCents += gross
			continue
		}
		index[line.SellerID] = len(split.Payouts)
		split.Payouts = append(split.Payouts, Payout{SellerID: line.SellerID, AmountCents: gross})
	}
	return split
}

// Total is the sum of all seller payouts.
func (s Split) Total() int64 {
	var total int64
	for _, p := range s.Payouts {
		total += p.AmountCents
	}
	return total
}

// Amount returns the payout owed to sellerID.
func (s Split) Amount(sellerID uuid.UUID) int64 {
	for _, p := range s.Payouts {
		if p.SellerID == sellerID {
			return p.AmountCents
		}
	}
	return 0
}

// Shares groups the cart into per-seller gross shares for tiered fees. Lines
// without a seller are pooled into one share at fallbackTier.
func Shares(lines []cart.Line, fallbackTier enums.SubscriptionTier) []Share {
	var (
		shares []Share
		index  = map[uuid.UUID]int{}
	)
	for _, line := range lines {
		gross := line.GrossCents()
		if gross == 0 {
			continue
		}
		key, tier := line.SellerID, line.SellerTier
		if !line.HasSeller() {
			key, tier = uuid.Nil, fallbackTier
		}
		if i, ok := index[key]; ok {
			shares[i].GrossCents += gross
			continue
		}
		index[key] = len(shares)
		shares = append(shares, Share{SellerID: key, Tier: tier, GrossCents: gross})
	}
	return shares
}
