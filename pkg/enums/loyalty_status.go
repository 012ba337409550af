package enums

// LoyaltyStatus is the buyer-facing milestone reward state.
type LoyaltyStatus string

const (
	LoyaltyStatusDormant  LoyaltyStatus = "dormant"
	LoyaltyStatusEligible LoyaltyStatus = "eligible"
	LoyaltyStatusClaimed  LoyaltyStatus = "claimed"
)

func (s LoyaltyStatus) String() string {
	return string(s)
}

func (s LoyaltyStatus) IsValid() bool {
	switch s {
	case LoyaltyStatusDormant, LoyaltyStatusEligible, LoyaltyStatusClaimed:
		return true
	}
	return false
}
