package models

import (
	"time"

	"github.com/google/uuid"
)

// BuyerLoyalty stores the milestone reward state. Version guards concurrent
// checkouts by the same buyer.
type BuyerLoyalty struct {
	BuyerID           uuid.UUID `gorm:"column:buyer_id;type:uuid;primaryKey"`
	CompletedOrders   int       `gorm:"column:completed_orders;not null;default:0"`
	LastGrantedAt     int       `gorm:"column:last_granted_at;not null;default:0"`
	DiscountApplied   bool      `gorm:"column:discount_applied;not null;default:false"`
	DiscountUsed      bool      `gorm:"column:discount_used;not null;default:false"`
	IntroDiscountUsed bool      `gorm:"column:intro_discount_used;not null;default:false"`
	Version           int64     `gorm:"column:version;not null;default:0"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BuyerLoyalty) TableName() string { return "buyer_loyalty" }
