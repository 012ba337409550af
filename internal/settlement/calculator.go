// Package settlement turns a priced cart into the buyer charge, the platform
// and gateway fees, and the per-seller payouts. Everything here is a pure
// function of its inputs.
package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-settlement/internal/fees"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/money"
)

// MixedTier labels a settlement whose sellers are on different tiers.
const MixedTier = "mixed"

// Breakdown is the fee computation for one checkout.
type Breakdown struct {
	SubtotalCents        int64               `json:"subtotal_cents"`
	PlatformFeeCents     int64               `json:"platform_fee_cents"`
	PlatformFeeRate      decimal.Decimal     `json:"platform_fee_rate"`
	PreGatewayTotalCents int64               `json:"pre_gateway_total_cents"`
	GatewayFeeCents      int64               `json:"gateway_fee_cents"`
	GatewayFeeRate       decimal.Decimal     `json:"gateway_fee_rate"`
	FinalTotalCents      int64               `json:"final_total_cents"`
	Tier                 string              `json:"tier"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	TierKnown            bool                `json:"-"`
	MethodKnown          bool                `json:"-"`
}

// Share is one seller's gross contribution to the cart.
type Share struct {
	SellerID   uuid.UUID
	Tier       enums.SubscriptionTier
	GrossCents int64
}

// Calculator applies a fee schedule.
type Calculator struct {
	schedule fees.Schedule
}

func NewCalculator(schedule fees.Schedule) Calculator {
	return Calculator{schedule: schedule}
}

func (c Calculator) Schedule() fees.Schedule {
	return c.schedule
}

// Settle charges the platform fee on the discounted subtotal, then the gateway
// fee on subtotal plus platform fee. Each fee is rounded once. A negative
// subtotal is treated as zero.
func (c Calculator) Settle(subtotalAfterDiscount int64, tier enums.SubscriptionTier, method enums.PaymentMethod) Breakdown {
	subtotal := money.ClampNonNegative(subtotalAfterDiscount)
	platformRate, tierKnown := c.schedule.PlatformRate(tier)
	platformFee := money.ApplyRate(subtotal, platformRate)

	out := Breakdown{
		SubtotalCents:    subtotal,
		PlatformFeeCents: platformFee,
		PlatformFeeRate:  platformRate,
		Tier:             tier.String(),
		TierKnown:        tierKnown,
	}
	c.applyGateway(&out, method)
	return out
}

// SettleTiered charges each seller's tier on that seller's share of the
// discounted subtotal. The discount is spread over the shares in proportion to
// their gross; shares are then grouped by tier and each group's fee is rounded
// once. When every share has the same tier the result equals Settle.
func (c Calculator) SettleTiered(shares []Share, discountCents int64, method enums.PaymentMethod) (Breakdown, error) {
	weights := make([]int64, len(shares))
	var gross int64
	for i, share := range shares {
		w := money.ClampNonNegative(share.GrossCents)
		weights[i] = w
		gross += w
	}
	discount := money.Min(money.ClampNonNegative(discountCents), gross)

	allocated, err := money.Allocate(discount, weights)
	if err != nil {
		return Breakdown{}, err
	}

	var (
		order  []enums.SubscriptionTier
		groups = map[enums.SubscriptionTier]int64{}
	)
	for i, share := range shares {
		if _, ok := groups[share.Tier]; !ok {
			order = append(order, share.Tier)
		}
		groups[share.Tier] += weights[i] - allocated[i]
	}

	if len(order) <= 1 {
		var tier enums.SubscriptionTier
		if len(order) == 1 {
			tier = order[0]
		} else {
			tier = c.schedule.FallbackTier
		}
		return c.Settle(gross-discount, tier, method), nil
	}

	out := Breakdown{
		SubtotalCents: gross - discount,
		Tier:          MixedTier,
		TierKnown:     true,
	}
	for _, tier := range order {
		rate, known := c.schedule.PlatformRate(tier)
		if !known {
			out.TierKnown = false
		}
		out.PlatformFeeCents += money.ApplyRate(groups[tier], rate)
	}
	out.PlatformFeeRate = money.Ratio(out.PlatformFeeCents, out.SubtotalCents)
	c.applyGateway(&out, method)
	return out, nil
}

func (c Calculator) applyGateway(out *Breakdown, method enums.PaymentMethod) {
	gatewayRate, methodKnown := c.schedule.GatewayRate(method)
	out.PreGatewayTotalCents = out.SubtotalCents + out.PlatformFeeCents
	out.GatewayFeeRate = gatewayRate
	out.GatewayFeeCents = money.ApplyRate(out.PreGatewayTotalCents, gatewayRate)
	out.FinalTotalCents = out.PreGatewayTotalCents + out.GatewayFeeCents
	out.PaymentMethod = method
	out.MethodKnown = methodKnown
}
