// Package loyalty tracks the per-buyer milestone reward. Transitions are pure
// functions of (completed order count, last granted milestone) so recomputing
// the same inputs never re-grants a reward.
package loyalty

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// DefaultMilestoneSize is the number of completed orders between rewards.
const DefaultMilestoneSize = 5

// State is the versioned loyalty record of one buyer.
type State struct {
	BuyerID           uuid.UUID `json:"buyer_id"`
	CompletedOrders   int       `json:"completed_orders"`
	LastGrantedAt     int       `json:"last_granted_at"`
	DiscountApplied   bool      `json:"discount_applied"`
	DiscountUsed      bool      `json:"discount_used"`
	IntroDiscountUsed bool      `json:"intro_discount_used"`
	Version           int64     `json:"version"`
}

// Tracker applies milestone transitions for a fixed milestone size.
type Tracker struct {
	size int
}

// NewTracker returns a tracker for size; non-positive sizes use the default.
func NewTracker(size int) Tracker {
	if size <= 0 {
		size = DefaultMilestoneSize
	}
	return Tracker{size: size}
}

func (t Tracker) Size() int {
	if t.size <= 0 {
		return DefaultMilestoneSize
	}
	return t.size
}

func (t Tracker) floor(count int) int {
	if count <= 0 {
		return 0
	}
	size := t.Size()
	return (count / size) * size
}

// Recompute moves state to completedCount. A reward is granted when the
// highest milestone reached is positive and above LastGrantedAt. If the count
// drops below an unclaimed grant, the grant is withdrawn so the milestone can
// be earned again.
func (t Tracker) Recompute(state State, completedCount int) State {
	if completedCount < 0 {
		completedCount = 0
	}
	state.CompletedOrders = completedCount
	reached := t.floor(completedCount)

	if state.DiscountApplied && completedCount < state.LastGrantedAt {
		state.DiscountApplied = false
		state.LastGrantedAt = reached
		return state
	}

	if reached > 0 && reached > state.LastGrantedAt {
		state.LastGrantedAt = reached
		state.DiscountApplied = true
		state.DiscountUsed = false
	}
	return state
}

// Redeem consumes an eligible reward. Any other state is returned unchanged
// with false.
func (t Tracker) Redeem(state State) (State, bool) {
	if !state.DiscountApplied {
		return state, false
	}
	state.DiscountApplied = false
	state.DiscountUsed = true
	return state, true
}

// Status derives the buyer-facing state.
func (t Tracker) Status(state State) enums.LoyaltyStatus {
	switch {
	case state.DiscountApplied:
		return enums.LoyaltyStatusEligible
	case state.DiscountUsed:
		return enums.LoyaltyStatusClaimed
	default:
		return enums.LoyaltyStatusDormant
	}
}

// NextMilestone is the next order count that grants a reward.
func (t Tracker) NextMilestone(state State) int {
	base := t.floor(state.CompletedOrders)
	if state.LastGrantedAt > base {
		base = state.LastGrantedAt
	}
	return base + t.Size()
}

// Remaining is the number of orders left until NextMilestone, at least 1.
func (t Tracker) Remaining(state State) int {
	remaining := t.NextMilestone(state) - state.CompletedOrders
	if remaining < 1 {
		return 1
	}
	return remaining
}

// Message is the text shown next to the cart.
func (t Tracker) Message(state State) string {
	if t.Status(state) == enums.LoyaltyStatusEligible {
		return fmt.Sprintf("You reached %d completed orders. Your reward is ready to redeem.", state.LastGrantedAt)
	}
	remaining := t.Remaining(state)
	if remaining == 1 {
		return "Complete 1 more order to unlock your next reward."
	}
	return fmt.Sprintf("Complete %d more orders to unlock your next reward.", remaining)
}

// Summary is the read model returned to callers.
type Summary struct {
	State         State               `json:"state"`
	Status        enums.LoyaltyStatus `json:"status"`
	NextMilestone int                 `json:"next_milestone"`
	Remaining     int                 `json:"remaining"`
	Message       string              `json:"message"`
}

// Summarize bundles the derived values for state.
func (t Tracker) Summarize(state State) Summary {
	return Summary{
		State:         state,
		Status:        t.Status(state),
		NextMilestone: t.NextMilestone(state),
		Remaining:     t.Remaining(state),
		Message:       t.Message(state),
	}
}
