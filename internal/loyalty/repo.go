package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/angelmondragon/packfinderz-settlement/pkg/db"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

// ErrVersionConflict is returned by Save when the stored version moved since
// the state was read.
var ErrVersionConflict = errors.New("loyalty state version conflict")

// Repository persists buyer loyalty records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, buyerID uuid.UUID) (State, error)
	GetForUpdate(ctx context.Context, buyerID uuid.UUID) (State, error)
	Save(ctx context.Context, state State, expectedVersion int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loyalty repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Get returns the stored state. A buyer without a row yields a zero state at
// version 0.
func (r *repository) Get(ctx context.Context, buyerID uuid.UUID) (State, error) {
	return r.load(r.db.WithContext(ctx), buyerID)
}

// GetForUpdate is Get under a row lock; it must run inside a transaction.
func (r *repository) GetForUpdate(ctx context.Context, buyerID uuid.UUID) (State, error) {
	return r.load(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), buyerID)
}

func (r *repository) load(q *gorm.DB, buyerID uuid.UUID) (State, error) {
	var row models.BuyerLoyalty
	err := q.Where("buyer_id = ?", buyerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return State{BuyerID: buyerID}, nil
	}
	if err != nil {
		return State{}, err
	}
	return fromModel(row), nil
}

// Save writes state if the stored version still equals expectedVersion and
// returns the new version. Version 0 means the row must not exist yet.
func (r *repository) Save(ctx context.Context, state State, expectedVersion int64) (int64, error) {
	next := expectedVersion + 1
	row := toModel(state)
	row.Version = next

	if expectedVersion == 0 {
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return 0, ErrVersionConflict
			}
			return 0, err
		}
		return next, nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.BuyerLoyalty{}).
		Where("buyer_id = ? AND version = ?", state.BuyerID, expectedVersion).
		Updates(map[string]any{
			"completed_orders":    row.CompletedOrders,
			"last_granted_at":     row.LastGrantedAt,
			"discount_applied":    row.DiscountApplied,
			"discount_used":       row.DiscountUsed,
			"intro_discount_used": row.IntroDiscountUsed,
			"version":             next,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return next, nil
}

func fromModel(row models.BuyerLoyalty) State {
	return State{
		BuyerID:           row.BuyerID,
		CompletedOrders:   row.CompletedOrders,
		LastGrantedAt:     row.LastGrantedAt,
		DiscountApplied:   row.DiscountApplied,
		DiscountUsed:      row.DiscountUsed,
		IntroDiscountUsed: row.IntroDiscountUsed,
		Version:           row.Version,
	}
}

func toModel(state State) models.BuyerLoyalty {
	return models.BuyerLoyalty{
		BuyerID:           state.BuyerID,
		CompletedOrders:   state.CompletedOrders,
		LastGrantedAt:     state.LastGrantedAt,
		DiscountApplied:   state.DiscountApplied,
		DiscountUsed:      state.DiscountUsed,
		IntroDiscountUsed: state.IntroDiscountUsed,
		Version:           state.Version,
	}
}
