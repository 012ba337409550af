package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

// Repository persists settlements and seller balances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSettlement(ctx context.Context, row *models.Settlement) error
	FindSettlementByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error)
	AdjustSellerBalance(ctx context.Context, sellerID uuid.UUID, deltaCents int64) error
	SellerBalance(ctx context.Context, sellerID uuid.UUID) (int64, error)
	ListSellerBalances(ctx context.Context) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a checkout repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateSettlement inserts the settlement with its payout rows.
func (r *repository) CreateSettlement(ctx context.Context, row *models.Settlement) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	for i := range row.Payouts {
		if row.Payouts[i].ID == uuid.Nil {
			row.Payouts[i].ID = uuid.New()
		}
		row.Payouts[i].SettlementID = row.ID
		row.Payouts[i].OrderID = row.OrderID
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindSettlementByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error) {
	var row models.Settlement
	if err := r.db.WithContext(ctx).
		Preload("Payouts", func(db *gorm.DB) *gorm.DB { return db.Order("seller_id ASC") }).
		Where("order_id = ?", orderID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// AdjustSellerBalance adds deltaCents to the seller's balance in a single-row
// upsert. Concurrent checkouts for the same seller serialise on that row only.
func (r *repository) AdjustSellerBalance(ctx context.Context, sellerID uuid.UUID, deltaCents int64) error {
	now := time.Now().UTC()
	row := models.SellerBalance{SellerID: sellerID, BalanceCents: deltaCents, UpdatedAt: now}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seller_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance_cents": gorm.Expr("seller_balances.balance_cents + excluded.balance_cents"),
				"updated_at":    now,
			}),
		}).
		Create(&row).Error
}

// SellerBalance returns zero for a seller that never received a payout.
func (r *repository) SellerBalance(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var row models.SellerBalance
	err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.BalanceCents, nil
}

func (r *repository) ListSellerBalances(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []models.SellerBalance
	if err := r.db.WithContext(ctx).Order("seller_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	balances := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		balances[row.SellerID] = row.BalanceCents
	}
	return balances, nil
}
