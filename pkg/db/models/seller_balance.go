package models

import (
	"time"

	"github.com/google/uuid"
)

// SellerBalance is the running payout balance owed to a seller.
type SellerBalance struct {
	SellerID     uuid.UUID `gorm:"column:seller_id;type:uuid;primaryKey"`
	BalanceCents int64     `gorm:"column:balance_cents;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
