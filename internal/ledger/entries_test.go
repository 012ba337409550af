package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/money"
)

func sampleResult() settlement.Result {
	sellerA, sellerB := uuid.New(), uuid.New()
	return settlement.Result{
		OrderID:                 uuid.New(),
		BuyerID:                 uuid.New(),
		RawSubtotalCents:        5300,
		IntroDiscountCents:      300,
		DiscountCents:           300,
		DiscountedSubtotalCents: 5000,
		PlatformFeeCents:        250,
		PlatformFeeRate:         money.MustRate("0.05"),
		GatewayFeeCents:         210,
		GatewayFeeRate:          money.MustRate("0.04"),
		FinalTotalCents:         5460,
		Payouts: []settlement.Payout{
			{SellerID: sellerA, AmountCents: 3000},
			{SellerID: sellerB, AmountCents: 2000},
		},
		UnallocatedCents: 300,
		ExcludedLines:    []string{"orphan"},
		PaymentMethod:    enums.PaymentMethodCardGateway,
		Tier:             "pro",
		CreatedAt:        time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildEntriesBalanced(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	entries := BuildEntries(result)
	if len(entries) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(entries))
	}
	if err := Balanced(entries); err != nil {
		t.Fatalf("entries should balance: %v", err)
	}

	buyer := entries[0]
	if buyer.PartyType != enums.LedgerPartyBuyer || buyer.Direction != enums.LedgerDebit || buyer.AmountCents != 5460 {
		t.Fatalf("unexpected buyer entry %+v", buyer)
	}
	if buyer.Party() != "buyer:"+result.BuyerID.String() {
		t.Fatalf("unexpected party label %q", buyer.Party())
	}

	var sellerCredits, fees int64
	for _, e := range entries {
		if e.OrderID != result.OrderID || !e.CreatedAt.Equal(result.CreatedAt) {
			t.Fatalf("entry not stamped with order: %+v", e)
		}
		switch {
		case e.PartyType == enums.LedgerPartySeller:
			sellerCredits += e.AmountCents
		case e.Type == enums.LedgerEntryFee:
			fees += e.AmountCents
			if e.Party() != "platform" {
				t.Fatalf("fees belong to the platform: %+v", e)
			}
		}
	}
	if sellerCredits != result.PayoutTotal() || fees != 460 {
		t.Fatalf("unexpected seller credits %d fees %d", sellerCredits, fees)
	}
}

func TestBuildEntriesSkipsZeroAmounts(t *testing.T) {
	t.Parallel()

	seller := uuid.New()
	entries := BuildEntries(settlement.Result{
		OrderID:                 uuid.New(),
		BuyerID:                 uuid.New(),
		RawSubtotalCents:        5000,
		DiscountedSubtotalCents: 5000,
		PlatformFeeCents:        500,
		PlatformFeeRate:         money.MustRate("0.10"),
		FinalTotalCents:         5500,
		Payouts:                 []settlement.Payout{{SellerID: seller, AmountCents: 5000}},
		PaymentMethod:           enums.PaymentMethodCashOnDelivery,
	})
	if len(entries) != 3 {
		t.Fatalf("expected buyer, seller and platform fee entries, got %+v", entries)
	}
	if err := Balanced(entries); err != nil {
		t.Fatalf("entries should balance: %v", err)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatal("missing timestamp should default to now")
	}
}

func TestBalancedRejects(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	unbalanced := []Entry{
		{ID: uuid.New(), OrderID: orderID, Direction: enums.LedgerDebit, AmountCents: 100},
		{ID: uuid.New(), OrderID: orderID, Direction: enums.LedgerCredit, AmountCents: 90},
	}
	if err := Balanced(unbalanced); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}
	zero := []Entry{{ID: uuid.New(), Direction: enums.LedgerDebit, AmountCents: 0}}
	if err := Balanced(zero); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected zero amount to fail, got %v", err)
	}
}

func TestReversalsMirror(t *testing.T) {
	t.Parallel()

	entries := BuildEntries(sampleResult())
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mirrors := Reversals(entries, "damaged", at)
	if len(mirrors) != len(entries) {
		t.Fatalf("expected %d mirrors, got %d", len(entries), len(mirrors))
	}
	for i, m := range mirrors {
		orig := entries[i]
		if m.Direction != orig.Direction.Opposite() || m.AmountCents != orig.AmountCents || m.Type != enums.LedgerEntryRefund {
			t.Fatalf("mirror %d does not reverse %+v: %+v", i, orig, m)
		}
		if m.ReversalOf == nil || *m.ReversalOf != orig.ID || m.Memo != "refund: damaged" {
			t.Fatalf("mirror %d missing back reference: %+v", i, m)
		}
	}
	if err := Balanced(append(entries, mirrors...)); err != nil {
		t.Fatalf("combined batch should balance: %v", err)
	}
	if again := Reversals(mirrors, "", at); len(again) != 0 {
		t.Fatalf("reversal entries must not be reversed again: %+v", again)
	}
}
