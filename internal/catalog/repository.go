// Package catalog is the read-only product lookup used at pricing time. The
// checkout never writes catalog rows; it prices against the snapshot returned
// here.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

// Snapshot is the catalog state of one product joined with its seller.
type Snapshot struct {
	ProductID      uuid.UUID
	SellerID       uuid.UUID
	SellerActive   bool
	SellerTier     string
	SKU            string
	Title          string
	UnitPriceCents int64
	Stock          int
	Active         bool
	Promotional    bool
}

// SellerResolved reports whether the product points at an existing, active seller.
func (s Snapshot) SellerResolved() bool {
	return s.SellerID != uuid.Nil && s.SellerActive
}

// Repository reads product snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Snapshots(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]Snapshot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Snapshots returns the products that exist among productIDs. Missing ids are
// simply absent from the map.
func (r *repository) Snapshots(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]Snapshot, error) {
	out := make(map[uuid.UUID]Snapshot, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}

	sellerIDs := make([]uuid.UUID, 0, len(products))
	seen := map[uuid.UUID]struct{}{}
	for _, p := range products {
		if _, ok := seen[p.SellerID]; ok {
			continue
		}
		seen[p.SellerID] = struct{}{}
		sellerIDs = append(sellerIDs, p.SellerID)
	}

	sellers := map[uuid.UUID]models.Seller{}
	if len(sellerIDs) > 0 {
		var rows []models.Seller
		if err := r.db.WithContext(ctx).
			Where("id IN ?", sellerIDs).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, s := range rows {
			sellers[s.ID] = s
		}
	}

	for _, p := range products {
		snap := Snapshot{
			ProductID:      p.ID,
			SKU:            p.SKU,
			Title:          p.Title,
			UnitPriceCents: p.PriceCents,
			Stock:          p.Stock,
			Active:         p.IsActive,
			Promotional:    p.IsPromotional,
		}
		if seller, ok := sellers[p.SellerID]; ok {
			snap.SellerID = seller.ID
			snap.SellerActive = seller.IsActive
			snap.SellerTier = string(seller.SubscriptionTier)
		}
		out[p.ID] = snap
	}
	return out, nil
}
