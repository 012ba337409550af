// Package money holds the minor-unit arithmetic shared by pricing and settlement.
// Amounts are int64 cents; rates are decimals so that percentages never pass
// through binary floating point.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ApplyRate returns amount*rate rounded half-up to the nearest minor unit.
// Negative amounts and negative rates are treated as zero.
func ApplyRate(amountCents int64, rate decimal.Decimal) int64 {
	if amountCents <= 0 || !rate.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(amountCents).Mul(rate).Round(0).IntPart()
}

// ClampNonNegative returns zero for negative amounts.
func ClampNonNegative(amountCents int64) int64 {
	if amountCents < 0 {
		return 0
	}
	return amountCents
}

// Min returns the smaller of two amounts.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MustRate parses a fixed-point rate such as "0.07". It panics on malformed
// input and is meant for package-level tables.
func MustRate(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// Percent renders a rate as a percentage string, e.g. 0.07 -> "7%".
func Percent(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}

// Format renders cents as a major-unit string with two decimals.
func Format(amountCents int64) string {
	return decimal.New(amountCents, -2).StringFixed(2)
}

// Ratio returns part/whole as a rate rounded to four places; zero when whole is zero.
func Ratio(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).DivRound(decimal.NewFromInt(whole), 4)
}

// Allocate splits total across weights proportionally using the largest
// remainder method, so the parts always sum to total exactly. Ties go to the
// earlier index.
func Allocate(total int64, weights []int64) ([]int64, error) {
	parts := make([]int64, len(weights))
	if total == 0 || len(weights) == 0 {
		return parts, nil
	}
	var sum int64
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("negative weight %d", w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("cannot allocate %d across zero weights", total)
	}

	type remainder struct {
		index int
		value int64
	}
	remainders := make([]remainder, len(weights))
	var allocated int64
	for i, w := range weights {
		share := total * w
		parts[i] = share / sum
		remainders[i] = remainder{index: i, value: share % sum}
		allocated += parts[i]
	}

	left := total - allocated
	for left > 0 {
		best := -1
		for i, r := range remainders {
			if r.value < 0 {
				continue
			}
			if best == -1 || r.value > remainders[best].value {
				best = i
			}
		}
		if best == -1 {
			break
		}
		parts[remainders[best].index]++
		remainders[best].value = -1
		left--
	}
	return parts, nil
}
