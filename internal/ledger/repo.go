package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, entries []models.LedgerEntry) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	HasReversal(ctx context.Context, orderID uuid.UUID) (bool, error)
	SellerNetTotals(ctx context.Context) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("line_no ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) HasReversal(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("order_id = ? AND reversal_of IS NOT NULL", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SellerNetTotals sums credits minus debits per seller across the whole ledger.
func (r *repository) SellerNetTotals(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		PartyID  uuid.UUID
		NetCents int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("party_id, SUM(CASE WHEN direction = ? THEN amount_cents ELSE -amount_cents END) AS net_cents", enums.LedgerCredit).
		Where("party_type = ? AND party_id IS NOT NULL", enums.LedgerPartySeller).
		Group("party_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		totals[row.PartyID] = row.NetCents
	}
	return totals, nil
}
