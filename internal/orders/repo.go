// Package orders stores the buyer orders created by committed checkouts and
// answers the completed-order count that drives loyalty milestones.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// ErrNotRefundable is returned when a refund targets an order that is no
// longer completed.
var ErrNotRefundable = errors.New("order is not refundable")

// Repository persists buyer orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.BuyerOrder) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.BuyerOrder, error)
	FindByIDForUpdate(ctx context.Context, orderID uuid.UUID) (*models.BuyerOrder, error)
	CountCompleted(ctx context.Context, buyerID uuid.UUID) (int, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.BuyerOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusCompleted
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.BuyerOrder, error) {
	var order models.BuyerOrder
	if err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, orderID uuid.UUID) (*models.BuyerOrder, error) {
	var order models.BuyerOrder
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CountCompleted counts the buyer's orders that are neither cancelled nor
// refunded.
func (r *repository) CountCompleted(ctx context.Context, buyerID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BuyerOrder{}).
		Where("buyer_id = ? AND status = ?", buyerID, enums.OrderStatusCompleted).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// MarkRefunded moves a completed order to refunded.
func (r *repository) MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error {
	updates := map[string]any{
		"status":     enums.OrderStatusRefunded,
		"updated_at": time.Now().UTC(),
	}
	if reason != "" {
		updates["refund_reason"] = reason
	}
	result := r.db.WithContext(ctx).
		Model(&models.BuyerOrder{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusCompleted).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotRefundable
	}
	return nil
}
