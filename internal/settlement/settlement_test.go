package settlement

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/cart"
	"github.com/angelmondragon/packfinderz-settlement/internal/fees"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

func newCalculator() Calculator {
	return NewCalculator(fees.Default(""))
}

func TestSettleScenarios(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	cases := []struct {
		name                  string
		subtotal              int64
		tier                  enums.SubscriptionTier
		method                enums.PaymentMethod
		platform, gateway, fn int64
	}{
		{"pro card", 5000, enums.SubscriptionTierPro, enums.PaymentMethodCardGateway, 250, 210, 5460},
		{"free cash", 5000, enums.SubscriptionTierFree, enums.PaymentMethodCashOnDelivery, 500, 0, 5500},
		{"growth wallet", 1250, enums.SubscriptionTierGrowth, enums.PaymentMethodWalletGateway, 88, 13, 1351},
		{"chat pay", 999, enums.SubscriptionTierPro, enums.PaymentMethodChatPay, 50, 0, 1049},
		{"negative clamps", -300, enums.SubscriptionTierPro, enums.PaymentMethodCardGateway, 0, 0, 0},
	}
	for _, tc := range cases {
		got := calc.Settle(tc.subtotal, tc.tier, tc.method)
		if got.PlatformFeeCents != tc.platform || got.GatewayFeeCents != tc.gateway || got.FinalTotalCents != tc.fn {
			t.Fatalf("%s: got platform=%d gateway=%d final=%d", tc.name, got.PlatformFeeCents, got.GatewayFeeCents, got.FinalTotalCents)
		}
		if !got.TierKnown || !got.MethodKnown {
			t.Fatalf("%s: expected known tier and method", tc.name)
		}
	}

	pro := calc.Settle(5000, enums.SubscriptionTierPro, enums.PaymentMethodCardGateway)
	if pro.PreGatewayTotalCents != 5250 {
		t.Fatalf("gateway fee must compound on platform fee, pre-gateway=%d", pro.PreGatewayTotalCents)
	}
}

func TestSettleUnknownInputsFallBack(t *testing.T) {
	t.Parallel()

	got := newCalculator().Settle(5000, enums.SubscriptionTier("diamond"), enums.PaymentMethod("barter"))
	if got.TierKnown || got.MethodKnown {
		t.Fatal("unknown inputs should be reported")
	}
	if got.PlatformFeeCents != 500 || got.GatewayFeeCents != 220 || got.FinalTotalCents != 5720 {
		t.Fatalf("unexpected fallback breakdown %+v", got)
	}
}

func TestSettleInvariantsHoldForRandomInputs(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	tiers := []enums.SubscriptionTier{enums.SubscriptionTierFree, enums.SubscriptionTierGrowth, enums.SubscriptionTierPro, "odd"}
	methods := []enums.PaymentMethod{enums.PaymentMethodCardGateway, enums.PaymentMethodWalletGateway, enums.PaymentMethodCashOnDelivery, enums.PaymentMethodChatPay}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		subtotal := rng.Int63n(1_000_000) - 1000
		got := calc.Settle(subtotal, tiers[rng.Intn(len(tiers))], methods[rng.Intn(len(methods))])
		if got.PlatformFeeCents < 0 || got.GatewayFeeCents < 0 {
			t.Fatalf("negative fee for %d: %+v", subtotal, got)
		}
		if got.FinalTotalCents < got.SubtotalCents || got.SubtotalCents < 0 {
			t.Fatalf("final below subtotal for %d: %+v", subtotal, got)
		}
		if got.FinalTotalCents != got.SubtotalCents+got.PlatformFeeCents+got.GatewayFeeCents {
			t.Fatalf("components do not add up: %+v", got)
		}
	}
}

func TestSettleTieredUniformMatchesSettle(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	shares := []Share{
		{SellerID: uuid.New(), Tier: enums.SubscriptionTierGrowth, GrossCents: 3333},
		{SellerID: uuid.New(), Tier: enums.SubscriptionTierGrowth, GrossCents: 1667},
	}
	tiered, err := calc.SettleTiered(shares, 500, enums.PaymentMethodCardGateway)
	if err != nil {
		t.Fatalf("settle tiered: %v", err)
	}
	flat := calc.Settle(4500, enums.SubscriptionTierGrowth, enums.PaymentMethodCardGateway)
	if tiered != flat {
		t.Fatalf("uniform tier should match Settle:\n%+v\n%+v", tiered, flat)
	}
}

func TestSettleTieredMixed(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	shares := []Share{
		{SellerID: uuid.New(), Tier: enums.SubscriptionTierPro, GrossCents: 3000},
		{SellerID: uuid.New(), Tier: enums.SubscriptionTierFree, GrossCents: 2000},
	}
	got, err := calc.SettleTiered(shares, 0, enums.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("settle tiered: %v", err)
	}
	// 3000*5% + 2000*10%
	if got.PlatformFeeCents != 350 || got.Tier != MixedTier || got.FinalTotalCents != 5350 {
		t.Fatalf("unexpected mixed breakdown %+v", got)
	}
	if got.PlatformFeeRate.String() != "0.07" {
		t.Fatalf("expected blended rate 0.07, got %s", got.PlatformFeeRate)
	}

	discounted, err := calc.SettleTiered(shares, 1000, enums.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("settle tiered: %v", err)
	}
	// discount splits 600/400: 2400*5% + 1600*10%
	if discounted.SubtotalCents != 4000 || discounted.PlatformFeeCents != 280 {
		t.Fatalf("unexpected discounted breakdown %+v", discounted)
	}
}

func TestSettleTieredDiscountExceedsGross(t *testing.T) {
	t.Parallel()

	got, err := newCalculator().SettleTiered([]Share{{SellerID: uuid.New(), Tier: enums.SubscriptionTierPro, GrossCents: 300}}, 500, enums.PaymentMethodCardGateway)
	if err != nil {
		t.Fatalf("settle tiered: %v", err)
	}
	if got.SubtotalCents != 0 || got.FinalTotalCents != 0 {
		t.Fatalf("expected zero totals, got %+v", got)
	}

	empty, err := newCalculator().SettleTiered(nil, 0, enums.PaymentMethodCardGateway)
	if err != nil || empty.FinalTotalCents != 0 || empty.Tier != "free" {
		t.Fatalf("empty shares should settle at zero on the fallback tier: %+v %v", empty, err)
	}
}

func TestSplitPayoutsTwoSellers(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	lines := []cart.Line{
		{Key: "a1", SellerID: a, UnitPriceCents: 1000, Quantity: 2, Stock: 5},
		{Key: "b1", SellerID: b, UnitPriceCents: 2000, Quantity: 1, Stock: 5},
		{Key: "a2", SellerID: a, UnitPriceCents: 500, Quantity: 2, Stock: 5},
		{Key: "gift", SellerID: b, Quantity: 1, Stock: 1, Promotional: true},
	}
	split := SplitPayouts(lines)
	if split.Amount(a) != 3000 || split.Amount(b) != 2000 {
		t.Fatalf("unexpected payouts %+v", split.Payouts)
	}
	if split.Payouts[0].SellerID != a {
		t.Fatal("payouts should follow first appearance")
	}
	c := cart.New()
	for _, line := range lines {
		if err := c.Add(line); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if split.Total() != cart.ComputeSubtotal(c) || split.Unallocated != 0 {
		t.Fatalf("payouts must sum to the raw subtotal")
	}
}

func TestSplitPayoutsExcludesUnresolvedSeller(t *testing.T) {
	t.Parallel()

	seller := uuid.New()
	split := SplitPayouts([]cart.Line{
		{Key: "ok", SellerID: seller, UnitPriceCents: 1200, Quantity: 1, Stock: 1},
		{Key: "orphan", UnitPriceCents: 800, Quantity: 1, Stock: 1},
	})
	if len(split.Payouts) != 1 || split.Amount(seller) != 1200 {
		t.Fatalf("unexpected payouts %+v", split.Payouts)
	}
	if split.Unallocated != 800 || len(split.Excluded) != 1 || split.Excluded[0] != "orphan" {
		t.Fatalf("unexpected exclusions %+v", split)
	}
}

func TestSplitPayoutsSumProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	sellers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.Nil}
	for round := 0; round < 200; round++ {
		c := cart.New()
		for i := 0; i < 1+rng.Intn(8); i++ {
			line := cart.Line{
				ProductID:      uuid.New(),
				SellerID:       sellers[rng.Intn(len(sellers))],
				UnitPriceCents: rng.Int63n(10_000),
				Quantity:       1 + rng.Intn(5),
				Stock:          rng.Intn(6),
			}
			if err := c.Add(line); err != nil {
				t.Fatalf("add: %v", err)
			}
		}
		split := SplitPayouts(c.Lines())
		if split.Total()+split.Unallocated != cart.ComputeSubtotal(c) {
			t.Fatalf("round %d: payouts %d + unallocated %d != subtotal %d", round, split.Total(), split.Unallocated, cart.ComputeSubtotal(c))
		}
	}
}

func TestSharesPoolsOrphans(t *testing.T) {
	t.Parallel()

	a := uuid.New()
	shares := Shares([]cart.Line{
		{Key: "1", SellerID: a, SellerTier: enums.SubscriptionTierPro, UnitPriceCents: 100, Quantity: 1, Stock: 1},
		{Key: "2", UnitPriceCents: 50, Quantity: 1, Stock: 1},
		{Key: "3", UnitPriceCents: 25, Quantity: 2, Stock: 2},
		{Key: "4", SellerID: a, SellerTier: enums.SubscriptionTierPro, UnitPriceCents: 10, Quantity: 1, Stock: 1},
	}, enums.SubscriptionTierFree)
	if len(shares) != 2 {
		t.Fatalf("expected 2 shares, got %+v", shares)
	}
	if shares[0].GrossCents != 110 || shares[1].GrossCents != 100 || shares[1].Tier != enums.SubscriptionTierFree {
		t.Fatalf("unexpected shares %+v", shares)
	}
}

func TestSettleTieredOrphanLineChargedAtFallbackTier(t *testing.T) {
	t.Parallel()

	pro := uuid.New()
	lines := []cart.Line{
		{Key: "1", SellerID: pro, SellerTier: enums.SubscriptionTierPro, UnitPriceCents: 2000, Quantity: 2, Stock: 5},
		{Key: "2", UnitPriceCents: 1000, Quantity: 1, Stock: 1},
	}
	calc := newCalculator()
	got, err := calc.SettleTiered(Shares(lines, enums.SubscriptionTierFree), 0, enums.PaymentMethodCardGateway)
	if err != nil {
		t.Fatalf("settle tiered: %v", err)
	}
	// pro 5% of 4000 plus free 10% of 1000; card 4% of 5300.
	if got.Tier != MixedTier || got.SubtotalCents != 5000 || got.PlatformFeeCents != 300 ||
		got.GatewayFeeCents != 212 || got.FinalTotalCents != 5512 {
		t.Fatalf("unexpected breakdown %+v", got)
	}

	allPro := calc.Settle(5000, enums.SubscriptionTierPro, enums.PaymentMethodCardGateway)
	if got.PlatformFeeCents-allPro.PlatformFeeCents != 50 {
		t.Fatalf("orphan gross should carry the fallback rate, all-pro fee %d", allPro.PlatformFeeCents)
	}
}
