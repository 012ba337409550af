// Package checkout orchestrates a buyer checkout: price the cart, settle fees
// and payouts, then commit the settlement, ledger batch and loyalty update in
// one transaction.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/cart"
	"github.com/angelmondragon/packfinderz-settlement/internal/fees"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/loyalty"
	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
)

type cartBuilder interface {
	BuildCart(ctx context.Context, items []cart.ItemInput) (*cart.Cart, []cart.Warning, error)
}

type loyaltyReader interface {
	Load(ctx context.Context, buyerID uuid.UUID) (loyalty.State, error)
}

// Options configures pricing and commit behaviour.
type Options struct {
	IntroDiscountCapCents int64
	RewardKind            enums.RewardKind
	RewardCents           int64
	GiftProductID         uuid.UUID
	CommitTimeout         time.Duration
}

// Request is a full checkout or quote request. Tier overrides the per-seller
// tiers when set; PaymentMethod is optional for quotes.
type Request struct {
	BuyerID       uuid.UUID
	Items         []cart.ItemInput
	PaymentMethod enums.PaymentMethod
	Tier          enums.SubscriptionTier
	RedeemReward  bool
}

// QuoteOutcome is a quote plus, when a payment method was given, the fee
// preview for it.
type QuoteOutcome struct {
	Quote    Quote                 `json:"quote"`
	Preview  *settlement.Breakdown `json:"preview,omitempty"`
	Warnings []cart.Warning        `json:"warnings,omitempty"`
}

// Outcome is a committed checkout.
type Outcome struct {
	Result   settlement.Result `json:"settlement"`
	Receipt  Receipt           `json:"receipt"`
	Loyalty  loyalty.Summary   `json:"loyalty"`
	Warnings []cart.Warning    `json:"warnings,omitempty"`
}

// Engine is the checkout entry point.
type Engine interface {
	PriceCart(c *cart.Cart, state loyalty.State, opts PriceOptions) Quote
	SettleCheckout(ctx context.Context, c *cart.Cart, state loyalty.State, tier enums.SubscriptionTier, method enums.PaymentMethod, opts PriceOptions) (settlement.Result, error)
	CommitSettlement(ctx context.Context, result settlement.Result) (Receipt, error)
	Quote(ctx context.Context, req Request) (QuoteOutcome, error)
	Checkout(ctx context.Context, req Request) (Outcome, error)
	Refund(ctx context.Context, orderID uuid.UUID, reason string) (Reversal, error)
	FeeSchedule() fees.Table
}

type engine struct {
	carts   cartBuilder
	loyalty loyaltyReader
	store   Store
	calc    settlement.Calculator
	tracker loyalty.Tracker
	opts    Options
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewEngine wires the checkout engine.
func NewEngine(
	carts cartBuilder,
	loyaltySvc loyaltyReader,
	store Store,
	calc settlement.Calculator,
	tracker loyalty.Tracker,
	opts Options,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Engine, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart builder required")
	}
	if loyaltySvc == nil {
		return nil, fmt.Errorf("loyalty reader required")
	}
	if store == nil {
		return nil, fmt.Errorf("checkout store required")
	}
	if err := calc.Schedule().Validate(); err != nil {
		return nil, fmt.Errorf("fee schedule: %w", err)
	}
	if opts.RewardKind == "" {
		opts.RewardKind = enums.RewardKindDiscount
	}
	if !opts.RewardKind.IsValid() {
		return nil, fmt.Errorf("invalid reward kind %q", opts.RewardKind)
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 10 * time.Second
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &engine{
		carts:   carts,
		loyalty: loyaltySvc,
		store:   store,
		calc:    calc,
		tracker: tracker,
		opts:    opts,
		metrics: checkoutMetrics,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (e *engine) FeeSchedule() fees.Table {
	return e.calc.Schedule().Table()
}

// SettleCheckout prices c and derives the buyer charge, fees and payouts. It
// has no side effects; the returned Result is committed separately.
func (e *engine) SettleCheckout(ctx context.Context, c *cart.Cart, state loyalty.State, tier enums.SubscriptionTier, method enums.PaymentMethod, opts PriceOptions) (settlement.Result, error) {
	if state.BuyerID == uuid.Nil {
		return settlement.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if err := c.Validate(); err != nil {
		return settlement.Result{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	quote := e.PriceCart(c, state, opts)
	lines := quote.Cart.Lines()
	split := settlement.SplitPayouts(lines)
	if got := split.Total() + split.Unallocated; got != quote.RawSubtotalCents {
		return settlement.Result{}, pkgerrors.New(pkgerrors.CodeInternal, "payout split does not match subtotal").
			WithDetails(map[string]any{"payouts": split.Total(), "unallocated": split.Unallocated, "subtotal": quote.RawSubtotalCents})
	}
	if len(split.Excluded) > 0 {
		warnCtx := e.logg.WithFields(ctx, map[string]any{
			"buyer_id":          state.BuyerID.String(),
			"excluded_lines":    split.Excluded,
			"unallocated_cents": split.Unallocated,
		})
		e.logg.Warn(warnCtx, "cart lines without a resolvable seller excluded from payouts")
	}

	breakdown, err := e.breakdown(ctx, lines, quote.RawSubtotalCents, quote.DiscountCents, tier, method)
	if err != nil {
		return settlement.Result{}, err
	}

	return settlement.Result{
		OrderID:                 uuid.New(),
		BuyerID:                 state.BuyerID,
		RawSubtotalCents:        quote.RawSubtotalCents,
		IntroDiscountCents:      quote.IntroDiscountCents,
		RewardDiscountCents:     quote.RewardDiscountCents,
		DiscountCents:           quote.DiscountCents,
		DiscountedSubtotalCents: breakdown.SubtotalCents,
		PlatformFeeCents:        breakdown.PlatformFeeCents,
		PlatformFeeRate:         breakdown.PlatformFeeRate,
		GatewayFeeCents:         breakdown.GatewayFeeCents,
		GatewayFeeRate:          breakdown.GatewayFeeRate,
		FinalTotalCents:         breakdown.FinalTotalCents,
		Payouts:                 split.Payouts,
		UnallocatedCents:        split.Unallocated,
		ExcludedLines:           split.Excluded,
		PaymentMethod:           method,
		Tier:                    breakdown.Tier,
		FeeScheduleVersion:      e.calc.Schedule().Version,
		Loyalty:                 quote.Next,
		IntroDiscountClaimed:    quote.IntroDiscountCents > 0,
		RewardRedeemed:          quote.RewardRedeemed,
		CreatedAt:               e.now(),
	}, nil
}

// breakdown charges per-seller tiers unless tier overrides them.
func (e *engine) breakdown(ctx context.Context, lines []cart.Line, raw, discount int64, tier enums.SubscriptionTier, method enums.PaymentMethod) (settlement.Breakdown, error) {
	var out settlement.Breakdown
	if tier != "" {
		out = e.calc.Settle(raw-discount, tier, method)
	} else {
		var err error
		out, err = e.calc.SettleTiered(settlement.Shares(lines, e.calc.Schedule().FallbackTier), discount, method)
		if err != nil {
			return settlement.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate discount across sellers")
		}
	}
	if !out.TierKnown {
		e.metrics.IncFeeWarning("unknown_tier")
		e.logg.Warn(e.logg.WithField(ctx, "tier", out.Tier), ErrUnknownTier.Error()+", using fallback rate")
	}
	if !out.MethodKnown {
		e.metrics.IncFeeWarning("unknown_payment_method")
		e.logg.Warn(e.logg.WithField(ctx, "payment_method", method.String()), ErrUnknownPaymentMethod.Error()+", using fallback rate")
	}
	return out, nil
}

// CommitSettlement persists result, its ledger batch and the loyalty update
// atomically. Any failure rolls everything back and surfaces as
// CHECKOUT_FAILED; the internal kind is logged.
func (e *engine) CommitSettlement(ctx context.Context, result settlement.Result) (Receipt, error) {
	ctx = e.logg.WithOrderID(e.logg.WithBuyerID(ctx, result.BuyerID.String()), result.OrderID.String())

	entries := ledger.BuildEntries(result)
	if err := ledger.Balanced(entries); err != nil {
		return e.commitFailed(ctx, ErrLedgerCommit, err)
	}

	commitCtx, cancel := context.WithTimeout(ctx, e.opts.CommitTimeout)
	defer cancel()

	started := time.Now()
	receipt, err := e.store.Commit(commitCtx, Batch{Result: result, Entries: entries})
	e.metrics.ObserveCommit(time.Since(started))
	if err != nil {
		kind := ErrLedgerCommit
		if failureKind(err) == "loyalty_conflict" {
			kind = ErrLoyaltyConflict
		}
		return e.commitFailed(ctx, kind, err)
	}

	e.metrics.IncSettlement(result.PaymentMethod.String(), result.Tier)
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"final_total_cents": result.FinalTotalCents,
		"payouts":           len(result.Payouts),
		"ledger_entries":    receipt.LedgerEntries,
	}), "checkout committed")
	return receipt, nil
}

func (e *engine) commitFailed(ctx context.Context, kind, cause error) (Receipt, error) {
	label := failureKind(cause)
	e.metrics.IncCommitFailure(label)
	e.logg.Error(e.logg.WithField(ctx, "failure_kind", label), "checkout commit failed", cause)
	return Receipt{}, commitFailure(kind, cause)
}

// Quote builds and prices the cart without committing anything.
func (e *engine) Quote(ctx context.Context, req Request) (QuoteOutcome, error) {
	c, warnings, state, err := e.load(ctx, req)
	if err != nil {
		return QuoteOutcome{}, err
	}
	quote := e.PriceCart(c, state, PriceOptions{RedeemReward: req.RedeemReward})
	out := QuoteOutcome{Quote: quote, Warnings: warnings}
	if req.PaymentMethod != "" {
		preview, err := e.breakdown(ctx, quote.Lines, quote.RawSubtotalCents, quote.DiscountCents, req.Tier, req.PaymentMethod)
		if err != nil {
			return QuoteOutcome{}, err
		}
		out.Preview = &preview
	}
	return out, nil
}

// Checkout loads the buyer's state, settles the cart and commits it.
func (e *engine) Checkout(ctx context.Context, req Request) (Outcome, error) {
	if req.PaymentMethod == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "payment_method is required")
	}
	c, warnings, state, err := e.load(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	result, err := e.SettleCheckout(ctx, c, state, req.Tier, req.PaymentMethod, PriceOptions{RedeemReward: req.RedeemReward})
	if err != nil {
		return Outcome{}, err
	}
	receipt, err := e.CommitSettlement(ctx, result)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Result:   result,
		Receipt:  receipt,
		Loyalty:  e.tracker.Summarize(receipt.Loyalty),
		Warnings: warnings,
	}, nil
}

func (e *engine) load(ctx context.Context, req Request) (*cart.Cart, []cart.Warning, loyalty.State, error) {
	if req.BuyerID == uuid.Nil {
		return nil, nil, loyalty.State{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer_id is required")
	}
	c, warnings, err := e.carts.BuildCart(ctx, req.Items)
	if err != nil {
		return nil, nil, loyalty.State{}, err
	}
	state, err := e.loyalty.Load(ctx, req.BuyerID)
	if err != nil {
		return nil, nil, loyalty.State{}, err
	}
	return c, warnings, state, nil
}

// Refund reverses a committed order.
func (e *engine) Refund(ctx context.Context, orderID uuid.UUID, reason string) (Reversal, error) {
	if orderID == uuid.Nil {
		return Reversal{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	ctx = e.logg.WithOrderID(ctx, orderID.String())

	commitCtx, cancel := context.WithTimeout(ctx, e.opts.CommitTimeout)
	defer cancel()

	reversal, err := e.store.Reverse(commitCtx, orderID, reason)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return Reversal{}, err
		}
		e.logg.Error(ctx, "refund failed", err)
		return Reversal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund order")
	}
	e.logg.Info(e.logg.WithField(ctx, "refunded_cents", reversal.RefundedCents), "order refunded")
	return reversal, nil
}
