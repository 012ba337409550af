package enums

import (
	"fmt"
	"strings"
)

// RewardKind selects how a milestone reward is delivered at checkout.
type RewardKind string

const (
	RewardKindDiscount RewardKind = "discount"
	RewardKindGift     RewardKind = "gift"
)

func (k RewardKind) String() string {
	return string(k)
}

func (k RewardKind) IsValid() bool {
	return k == RewardKindDiscount || k == RewardKindGift
}

// ParseRewardKind converts raw input into a RewardKind.
func ParseRewardKind(value string) (RewardKind, error) {
	switch RewardKind(strings.ToLower(strings.TrimSpace(value))) {
	case RewardKindDiscount:
		return RewardKindDiscount, nil
	case RewardKindGift:
		return RewardKindGift, nil
	default:
		return "", fmt.Errorf("invalid reward kind %q", value)
	}
}
