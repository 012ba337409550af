package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-settlement/internal/loyalty"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Result is the immutable outcome of settling one checkout. It is produced
// once, never mutated, and handed to the persistence layer as a whole.
// Loyalty is the buyer state as priced; its Version is the stored version the
// commit expects to replace.
type Result struct {
	OrderID                 uuid.UUID           `json:"order_id"`
	BuyerID                 uuid.UUID           `json:"buyer_id"`
	RawSubtotalCents        int64               `json:"raw_subtotal_cents"`
	IntroDiscountCents      int64               `json:"intro_discount_cents"`
	RewardDiscountCents     int64               `json:"reward_discount_cents"`
	DiscountCents           int64               `json:"discount_cents"`
	DiscountedSubtotalCents int64               `json:"discounted_subtotal_cents"`
	PlatformFeeCents        int64               `json:"platform_fee_cents"`
	PlatformFeeRate         decimal.Decimal     `json:"platform_fee_rate"`
	GatewayFeeCents         int64               `json:"gateway_fee_cents"`
	GatewayFeeRate          decimal.Decimal     `json:"gateway_fee_rate"`
	FinalTotalCents         int64               `json:"final_total_cents"`
	Payouts                 []Payout            `json:"payouts"`
	UnallocatedCents        int64               `json:"unallocated_cents"`
	ExcludedLines           []string            `json:"excluded_lines,omitempty"`
	PaymentMethod           enums.PaymentMethod `json:"payment_method"`
	Tier                    string              `json:"tier"`
	FeeScheduleVersion      string              `json:"fee_schedule_version"`
	Loyalty                 loyalty.State       `json:"loyalty"`
	IntroDiscountClaimed    bool                `json:"intro_discount_claimed"`
	RewardRedeemed          bool                `json:"reward_redeemed"`
	CreatedAt               time.Time           `json:"created_at"`
}

// PayoutTotal is the sum of seller payouts.
func (r Result) PayoutTotal() int64 {
	var total int64
	for _, p := range r.Payouts {
		total += p.AmountCents
	}
	return total
}
