package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Settlement is the persisted, immutable money breakdown of one checkout.
type Settlement struct {
	ID                      uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID                 uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	BuyerID                 uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	RawSubtotalCents        int64               `gorm:"column:raw_subtotal_cents;not null"`
	IntroDiscountCents      int64               `gorm:"column:intro_discount_cents;not null"`
	RewardDiscountCents     int64               `gorm:"column:reward_discount_cents;not null"`
	DiscountedSubtotalCents int64               `gorm:"column:discounted_subtotal_cents;not null"`
	PlatformFeeCents        int64               `gorm:"column:platform_fee_cents;not null"`
	GatewayFeeCents         int64               `gorm:"column:gateway_fee_cents;not null"`
	FinalTotalCents         int64               `gorm:"column:final_total_cents;not null"`
	UnallocatedCents        int64               `gorm:"column:unallocated_cents;not null"`
	PlatformFeeRate         decimal.Decimal     `gorm:"column:platform_fee_rate;type:numeric(6,4);not null"`
	GatewayFeeRate          decimal.Decimal     `gorm:"column:gateway_fee_rate;type:numeric(6,4);not null"`
	PaymentMethod           enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	SellerTier              string              `gorm:"column:seller_tier;type:text;not null"`
	FeeScheduleVersion      string              `gorm:"column:fee_schedule_version;not null"`
	Payouts                 []SettlementPayout  `gorm:"foreignKey:SettlementID"`
	CreatedAt               time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// SettlementPayout is one seller's share of a settlement.
type SettlementPayout struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SettlementID uuid.UUID `gorm:"column:settlement_id;type:uuid;not null;index"`
	OrderID      uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	SellerID     uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`
	AmountCents  int64     `gorm:"column:amount_cents;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
