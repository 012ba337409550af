package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// SellerPayout is one seller's credited share.
type SellerPayout struct {
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
}

// SettlementCommittedEvent is emitted once a checkout's ledger batch commits.
type SettlementCommittedEvent struct {
	OrderID            uuid.UUID           `json:"order_id"`
	SettlementID       uuid.UUID           `json:"settlement_id"`
	BuyerID            uuid.UUID           `json:"buyer_id"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	RawSubtotalCents   int64               `json:"raw_subtotal_cents"`
	DiscountCents      int64               `json:"discount_cents"`
	PlatformFeeCents   int64               `json:"platform_fee_cents"`
	GatewayFeeCents    int64               `json:"gateway_fee_cents"`
	FinalTotalCents    int64               `json:"final_total_cents"`
	UnallocatedCents   int64               `json:"unallocated_cents"`
	Payouts            []SellerPayout      `json:"payouts"`
	FeeScheduleVersion string              `json:"fee_schedule_version"`
}

// SettlementReversedEvent is emitted when an order is refunded.
type SettlementReversedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	SettlementID  uuid.UUID `json:"settlement_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	RefundedCents int64     `json:"refunded_cents"`
	Reason        string    `json:"reason,omitempty"`
	ReversedAt    time.Time `json:"reversed_at"`
}

// LoyaltyRewardGrantedEvent tells downstream messaging a buyer crossed a
// milestone.
type LoyaltyRewardGrantedEvent struct {
	BuyerID         uuid.UUID `json:"buyer_id"`
	Milestone       int       `json:"milestone"`
	CompletedOrders int       `json:"completed_orders"`
	Message         string    `json:"message"`
}
