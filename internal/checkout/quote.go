package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/cart"
	"github.com/angelmondragon/packfinderz-settlement/internal/loyalty"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/money"
)

// GiftLineKey is the cart key of the line added by a gift reward.
const GiftLineKey = "loyalty-gift"

// PriceOptions are per-request pricing choices.
type PriceOptions struct {
	RedeemReward bool
}

// Quote is the priced cart shown to the buyer. Next is the loyalty state the
// buyer would have after checking out this quote; it is only persisted by a
// commit.
type Quote struct {
	BuyerID                 uuid.UUID       `json:"buyer_id"`
	Lines                   []cart.Line     `json:"lines"`
	RawSubtotalCents        int64           `json:"subtotal_cents"`
	IntroDiscountCents      int64           `json:"intro_discount_cents"`
	IntroDiscountEligible   bool            `json:"intro_discount_eligible"`
	RewardDiscountCents     int64           `json:"reward_discount_cents"`
	RewardRedeemed          bool            `json:"reward_redeemed"`
	RewardKind              string          `json:"reward_kind,omitempty"`
	DiscountCents           int64           `json:"discount_cents"`
	DiscountedSubtotalCents int64           `json:"discounted_subtotal_cents"`
	Loyalty                 loyalty.Summary `json:"loyalty"`
	LoyaltyMessage          string          `json:"loyalty_message"`

	Next loyalty.State `json:"-"`
	Cart *cart.Cart    `json:"-"`
}

// PriceCart computes subtotal, discounts and the loyalty message for c. It
// reads nothing and writes nothing, so pricing the same cart and state twice
// yields the same quote. The intro discount and a redeemed reward are marked
// consumed on Next only; the loyalty version check in Store.Commit keeps two
// quotes from the same state from both spending them.
func (e *engine) PriceCart(c *cart.Cart, state loyalty.State, opts PriceOptions) Quote {
	priced := c.Clone()
	raw := cart.ComputeSubtotal(priced)
	next := state

	intro, stillEligible := cart.ApplyNewCustomerDiscount(raw, state.IntroDiscountUsed, e.opts.IntroDiscountCapCents)
	if intro > 0 {
		next.IntroDiscountUsed = true
	}

	quote := Quote{
		BuyerID:               state.BuyerID,
		RawSubtotalCents:      raw,
		IntroDiscountCents:    intro,
		IntroDiscountEligible: stillEligible,
	}

	if opts.RedeemReward {
		if redeemed, ok := e.tracker.Redeem(next); ok {
			switch e.opts.RewardKind {
			case enums.RewardKindGift:
				if err := priced.Add(e.giftLine()); err == nil {
					next = redeemed
					quote.RewardRedeemed = true
					quote.RewardKind = enums.RewardKindGift.String()
				}
			default:
				reward := money.Min(money.ClampNonNegative(e.opts.RewardCents), raw-intro)
				if reward > 0 {
					next = redeemed
					quote.RewardDiscountCents = reward
					quote.RewardRedeemed = true
					quote.RewardKind = enums.RewardKindDiscount.String()
				}
			}
		}
	}

	quote.DiscountCents = intro + quote.RewardDiscountCents
	quote.DiscountedSubtotalCents = money.ClampNonNegative(raw - quote.DiscountCents)
	quote.Lines = priced.Lines()
	quote.Cart = priced
	quote.Next = next
	quote.Loyalty = e.tracker.Summarize(next)
	quote.LoyaltyMessage = quote.Loyalty.Message
	return quote
}

func (e *engine) giftLine() cart.Line {
	return cart.Line{
		Key:         GiftLineKey,
		ProductID:   e.opts.GiftProductID,
		Title:       "Loyalty reward",
		Quantity:    1,
		Stock:       1,
		Promotional: true,
	}
}
