package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// BuyerOrder is the order row created by a committed checkout. Only completed
// orders count toward loyalty milestones.
type BuyerOrder struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID       uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	SubtotalCents int64               `gorm:"column:subtotal_cents;not null"`
	DiscountCents int64               `gorm:"column:discount_cents;not null"`
	TotalCents    int64               `gorm:"column:total_cents;not null"`
	RefundReason  *string             `gorm:"column:refund_reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (BuyerOrder) TableName() string { return "buyer_orders" }
