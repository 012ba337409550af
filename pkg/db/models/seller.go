package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Seller is an independent vendor; its tier drives the platform fee.
type Seller struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Name             string                 `gorm:"column:name;not null"`
	SubscriptionTier enums.SubscriptionTier `gorm:"column:subscription_tier;type:text;not null;default:'free'"`
	IsActive         bool                   `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
