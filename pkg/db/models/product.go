package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog snapshot the checkout prices against.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SellerID      uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	SKU           string    `gorm:"column:sku;not null"`
	Title         string    `gorm:"column:title;not null"`
	PriceCents    int64     `gorm:"column:price_cents;not null"`
	Stock         int       `gorm:"column:stock;not null;default:0"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	IsPromotional bool      `gorm:"column:is_promotional;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
