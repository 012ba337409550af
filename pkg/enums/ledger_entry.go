package enums

import (
	"fmt"
	"strings"
)

// LedgerPartyType identifies who a ledger entry is booked against.
type LedgerPartyType string

const (
	LedgerPartyBuyer    LedgerPartyType = "buyer"
	LedgerPartySeller   LedgerPartyType = "seller"
	LedgerPartyPlatform LedgerPartyType = "platform"
)

var validLedgerPartyTypes = []LedgerPartyType{
	LedgerPartyBuyer,
	LedgerPartySeller,
	LedgerPartyPlatform,
}

func (p LedgerPartyType) String() string {
	return string(p)
}

func (p LedgerPartyType) IsValid() bool {
	for _, candidate := range validLedgerPartyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseLedgerPartyType converts raw input into a LedgerPartyType.
func ParseLedgerPartyType(value string) (LedgerPartyType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLedgerPartyTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger party type %q", value)
}

// LedgerDirection is the side of the double entry.
type LedgerDirection string

const (
	LedgerDebit  LedgerDirection = "debit"
	LedgerCredit LedgerDirection = "credit"
)

func (d LedgerDirection) String() string {
	return string(d)
}

func (d LedgerDirection) IsValid() bool {
	return d == LedgerDebit || d == LedgerCredit
}

// Opposite returns the mirror direction used by reversals.
func (d LedgerDirection) Opposite() LedgerDirection {
	if d == LedgerDebit {
		return LedgerCredit
	}
	return LedgerDebit
}

// ParseLedgerDirection converts raw input into a LedgerDirection.
func ParseLedgerDirection(value string) (LedgerDirection, error) {
	switch LedgerDirection(strings.ToLower(strings.TrimSpace(value))) {
	case LedgerDebit:
		return LedgerDebit, nil
	case LedgerCredit:
		return LedgerCredit, nil
	default:
		return "", fmt.Errorf("invalid ledger direction %q", value)
	}
}

// LedgerEntryType classifies the money movement.
type LedgerEntryType string

const (
	LedgerEntrySale     LedgerEntryType = "sale"
	LedgerEntryFee      LedgerEntryType = "fee"
	LedgerEntryDiscount LedgerEntryType = "discount"
	LedgerEntryRefund   LedgerEntryType = "refund"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntrySale,
	LedgerEntryFee,
	LedgerEntryDiscount,
	LedgerEntryRefund,
}

func (t LedgerEntryType) String() string {
	return string(t)
}

func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
