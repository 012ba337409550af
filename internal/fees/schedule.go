// Package fees is the single authoritative table of platform and gateway fee
// rates. Every rate used by pricing and settlement is read from a Schedule so
// that rate changes are versioned and testable in isolation.
package fees

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/money"
)

// DefaultVersion labels the rate table shipped with the service.
const DefaultVersion = "2024-01"

var (
	ErrUnknownTier          = errors.New("unknown subscription tier")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// Schedule maps tiers and payment methods to fee rates. Lookups for values
// missing from the table fall back to the conservative defaults.
type Schedule struct {
	Version        string
	Platform       map[enums.SubscriptionTier]decimal.Decimal
	Gateway        map[enums.PaymentMethod]decimal.Decimal
	FallbackTier   enums.SubscriptionTier
	FallbackMethod enums.PaymentMethod
}

// Default returns the production rate table tagged with version. An empty
// version uses DefaultVersion.
func Default(version string) Schedule {
	if version == "" {
		version = DefaultVersion
	}
	return Schedule{
		Version: version,
		Platform: map[enums.SubscriptionTier]decimal.Decimal{
			enums.SubscriptionTierFree:   money.MustRate("0.10"),
			enums.SubscriptionTierGrowth: money.MustRate("0.07"),
			enums.SubscriptionTierPro:    money.MustRate("0.05"),
		},
		Gateway: map[enums.PaymentMethod]decimal.Decimal{
			enums.PaymentMethodCardGateway:    money.MustRate("0.04"),
			enums.PaymentMethodWalletGateway:  money.MustRate("0.01"),
			enums.PaymentMethodCashOnDelivery: decimal.Zero,
			enums.PaymentMethodChatPay:        decimal.Zero,
		},
		FallbackTier:   enums.SubscriptionTierFree,
		FallbackMethod: enums.PaymentMethodCardGateway,
	}
}

// PlatformRate returns the platform fee rate for tier. known is false when the
// tier is not in the table and the fallback tier's rate was used.
func (s Schedule) PlatformRate(tier enums.SubscriptionTier) (rate decimal.Decimal, known bool) {
	if rate, ok := s.Platform[tier]; ok {
		return rate, true
	}
	return s.Platform[s.FallbackTier], false
}

// GatewayRate returns the processor rate for method. Cash and chat payments
// never carry a gateway fee. known is false when the fallback method was used.
func (s Schedule) GatewayRate(method enums.PaymentMethod) (rate decimal.Decimal, known bool) {
	if rate, ok := s.Gateway[method]; ok {
		if !method.UsesGateway() {
			return decimal.Zero, true
		}
		return rate, true
	}
	return s.Gateway[s.FallbackMethod], false
}

// ResolveTier normalises raw into a tier, falling back when it is unknown.
func (s Schedule) ResolveTier(raw string) (enums.SubscriptionTier, error) {
	tier, err := enums.ParseSubscriptionTier(raw)
	if err != nil {
		return s.FallbackTier, fmt.Errorf("%w: %q", ErrUnknownTier, raw)
	}
	if _, ok := s.Platform[tier]; !ok {
		return s.FallbackTier, fmt.Errorf("%w: %q", ErrUnknownTier, raw)
	}
	return tier, nil
}

// Validate checks the table is usable: fallbacks present and no negative or
// super-unit rates.
func (s Schedule) Validate() error {
	if s.Version == "" {
		return errors.New("fee schedule version required")
	}
	if _, ok := s.Platform[s.FallbackTier]; !ok {
		return fmt.Errorf("fallback tier %q missing from platform rates", s.FallbackTier)
	}
	if s.Platform[s.FallbackTier].IsZero() {
		return fmt.Errorf("fallback tier %q must not carry a zero rate", s.FallbackTier)
	}
	if _, ok := s.Gateway[s.FallbackMethod]; !ok {
		return fmt.Errorf("fallback method %q missing from gateway rates", s.FallbackMethod)
	}
	for tier, rate := range s.Platform {
		if err := checkRate(rate); err != nil {
			return fmt.Errorf("platform rate for %q: %w", tier, err)
		}
	}
	for method, rate := range s.Gateway {
		if err := checkRate(rate); err != nil {
			return fmt.Errorf("gateway rate for %q: %w", method, err)
		}
	}
	return nil
}

func checkRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return errors.New("negative rate")
	}
	if rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("rate must be below 100%")
	}
	return nil
}

// RateRow is one published line of the schedule.
type RateRow struct {
	Key     string `json:"key"`
	Rate    string `json:"rate"`
	Percent string `json:"percent"`
}

// Table is the externally visible form of a Schedule.
type Table struct {
	Version        string    `json:"version"`
	Platform       []RateRow `json:"platform"`
	Gateway        []RateRow `json:"gateway"`
	FallbackTier   string    `json:"fallback_tier"`
	FallbackMethod string    `json:"fallback_method"`
}

// Table renders the schedule with rows sorted by key.
func (s Schedule) Table() Table {
	out := Table{
		Version:        s.Version,
		FallbackTier:   s.FallbackTier.String(),
		FallbackMethod: s.FallbackMethod.String(),
	}
	for tier, rate := range s.Platform {
		out.Platform = append(out.Platform, row(tier.String(), rate))
	}
	for method, rate := range s.Gateway {
		out.Gateway = append(out.Gateway, row(method.String(), rate))
	}
	sort.Slice(out.Platform, func(i, j int) bool { return out.Platform[i].Key < out.Platform[j].Key })
	sort.Slice(out.Gateway, func(i, j int) bool { return out.Gateway[i].Key < out.Gateway[j].Key })
	return out
}

func row(key string, rate decimal.Decimal) RateRow {
	return RateRow{Key: key, Rate: rate.StringFixed(4), Percent: money.Percent(rate)}
}
