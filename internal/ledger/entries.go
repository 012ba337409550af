// Package ledger is the append-only record of every money movement a checkout
// produces. Entries are never updated or deleted; a refund appends mirror
// entries that point back at the originals.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/money"
)

var (
	ErrUnbalanced      = errors.New("ledger batch is not balanced")
	ErrAlreadyReversed = errors.New("ledger entries already reversed")
	ErrNothingToRecord = errors.New("ledger batch is empty")
)

// Entry is one side of a money movement. PartyID is nil for the platform.
type Entry struct {
	ID          uuid.UUID             `json:"id"`
	OrderID     uuid.UUID             `json:"order_id"`
	PartyType   enums.LedgerPartyType `json:"party_type"`
	PartyID     *uuid.UUID            `json:"party_id,omitempty"`
	Direction   enums.LedgerDirection `json:"direction"`
	Type        enums.LedgerEntryType `json:"type"`
	AmountCents int64                 `json:"amount_cents"`
	Memo        string                `json:"memo,omitempty"`
	ReversalOf  *uuid.UUID            `json:"reversal_of,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Party renders the counterparty as platform, seller:<id> or buyer:<id>.
func (e Entry) Party() string {
	if e.PartyID == nil || e.PartyType == enums.LedgerPartyPlatform {
		return enums.LedgerPartyPlatform.String()
	}
	return fmt.Sprintf("%s:%s", e.PartyType, e.PartyID)
}

// BuildEntries derives the balanced entry batch for a settlement:
//
//	debit  buyer     final total        sale
//	credit seller    payout             sale (one per seller)
//	credit platform  unallocated gross  sale
//	credit platform  platform fee       fee
//	credit platform  gateway fee        fee
//	debit  platform  discount           discount
//
// Zero amounts are omitted.
func BuildEntries(result settlement.Result) []Entry {
	at := result.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	buyerID := result.BuyerID

	var entries []Entry
	add := func(partyType enums.LedgerPartyType, partyID *uuid.UUID, dir enums.LedgerDirection, typ enums.LedgerEntryType, amount int64, memo string) {
		if amount <= 0 {
			return
		}
		entries = append(entries, Entry{
			ID:          uuid.New(),
			OrderID:     result.OrderID,
			PartyType:   partyType,
			PartyID:     partyID,
			Direction:   dir,
			Type:        typ,
			AmountCents: amount,
			Memo:        memo,
			CreatedAt:   at,
		})
	}

	add(enums.LedgerPartyBuyer, &buyerID, enums.LedgerDebit, enums.LedgerEntrySale, result.FinalTotalCents,
		fmt.Sprintf("charge via %s", result.PaymentMethod))
	for _, payout := range result.Payouts {
		sellerID := payout.SellerID
		add(enums.LedgerPartySeller, &sellerID, enums.LedgerCredit, enums.LedgerEntrySale, payout.AmountCents, "seller payout")
	}
	add(enums.LedgerPartyPlatform, nil, enums.LedgerCredit, enums.LedgerEntrySale, result.UnallocatedCents,
		fmt.Sprintf("unallocated gross from %d line(s) without seller", len(result.ExcludedLines)))
	add(enums.LedgerPartyPlatform, nil, enums.LedgerCredit, enums.LedgerEntryFee, result.PlatformFeeCents,
		fmt.Sprintf("platform fee %s (%s)", money.Percent(result.PlatformFeeRate), result.Tier))
	add(enums.LedgerPartyPlatform, nil, enums.LedgerCredit, enums.LedgerEntryFee, result.GatewayFeeCents,
		fmt.Sprintf("gateway fee %s (%s)", money.Percent(result.GatewayFeeRate), result.PaymentMethod))
	add(enums.LedgerPartyPlatform, nil, enums.LedgerDebit, enums.LedgerEntryDiscount, result.DiscountCents,
		fmt.Sprintf("buyer discount (intro %d, reward %d)", result.IntroDiscountCents, result.RewardDiscountCents))
	return entries
}

// Balanced checks that credits equal debits and every amount is positive.
func Balanced(entries []Entry) error {
	var credits, debits int64
	for _, e := range entries {
		if e.AmountCents <= 0 {
			return fmt.Errorf("%w: entry %s has non-positive amount %d", ErrUnbalanced, e.ID, e.AmountCents)
		}
		switch e.Direction {
		case enums.LedgerCredit:
			credits += e.AmountCents
		case enums.LedgerDebit:
			debits += e.AmountCents
		default:
			return fmt.Errorf("%w: entry %s has direction %q", ErrUnbalanced, e.ID, e.Direction)
		}
	}
	if credits != debits {
		return fmt.Errorf("%w: credits %d != debits %d", ErrUnbalanced, credits, debits)
	}
	return nil
}

// Reversals mirrors originals with the opposite direction and type refund.
// Entries that are themselves reversals are skipped.
func Reversals(originals []Entry, reason string, at time.Time) []Entry {
	out := make([]Entry, 0, len(originals))
	for _, orig := range originals {
		if orig.ReversalOf != nil {
			continue
		}
		origID := orig.ID
		memo := "refund"
		if reason != "" {
			memo = "refund: " + reason
		}
		out = append(out, Entry{
			ID:          uuid.New(),
			OrderID:     orig.OrderID,
			PartyType:   orig.PartyType,
			PartyID:     orig.PartyID,
			Direction:   orig.Direction.Opposite(),
			Type:        enums.LedgerEntryRefund,
			AmountCents: orig.AmountCents,
			Memo:        memo,
			ReversalOf:  &origID,
			CreatedAt:   at,
		})
	}
	return out
}
