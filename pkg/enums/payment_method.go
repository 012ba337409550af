package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a buyer settles a checkout.
type PaymentMethod string

const (
	PaymentMethodCardGateway    PaymentMethod = "card_gateway"
	PaymentMethodWalletGateway  PaymentMethod = "wallet_gateway"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodChatPay        PaymentMethod = "chat_pay"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCardGateway,
	PaymentMethodWalletGateway,
	PaymentMethodCashOnDelivery,
	PaymentMethodChatPay,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// UsesGateway reports whether a third-party processor is involved.
func (p PaymentMethod) UsesGateway() bool {
	return p == PaymentMethodCardGateway || p == PaymentMethodWalletGateway
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Hyphenated
// spellings ("card-gateway") are accepted.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	for _, candidate := range validPaymentMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
