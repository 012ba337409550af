package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/catalog"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

type catalogLookup interface {
	Snapshots(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]catalog.Snapshot, error)
}

// ItemInput is a buyer-requested product and quantity.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// Warning describes a line that was adjusted or dropped while building the cart.
type Warning struct {
	ProductID uuid.UUID                 `json:"product_id"`
	Type      enums.CartLineWarningType `json:"type"`
	Message   string                    `json:"message"`
}

// Service builds carts from the catalog snapshot.
type Service interface {
	BuildCart(ctx context.Context, items []ItemInput) (*Cart, []Warning, error)
}

type service struct {
	catalog catalogLookup
}

// NewService wires the cart builder to a catalog lookup.
func NewService(lookup catalogLookup) (Service, error) {
	if lookup == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	return &service{catalog: lookup}, nil
}

// BuildCart resolves items against the catalog. Repeated product ids are merged.
// Unknown or inactive products and out-of-stock items are dropped with a
// warning; lines whose seller cannot be resolved are kept unpaid.
func (s *service) BuildCart(ctx context.Context, items []ItemInput) (*Cart, []Warning, error) {
	if len(items) == 0 {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidCart, "cart must contain at least one item")
	}

	order := make([]uuid.UUID, 0, len(items))
	quantities := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidCart, "product_id is required")
		}
		if item.Quantity <= 0 {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidCart, "quantity must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if _, ok := quantities[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	snapshots, err := s.catalog.Snapshots(ctx, order)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog snapshot")
	}

	c := New()
	var warnings []Warning
	for _, productID := range order {
		qty := quantities[productID]
		snap, ok := snapshots[productID]
		if !ok || !snap.Active {
			warnings = append(warnings, Warning{ProductID: productID, Type: enums.CartLineWarningNotAvailable, Message: "product is not available"})
			continue
		}
		if snap.Stock <= 0 {
			warnings = append(warnings, Warning{ProductID: productID, Type: enums.CartLineWarningOutOfStock, Message: "product is out of stock"})
			continue
		}
		if qty > snap.Stock {
			warnings = append(warnings, Warning{
				ProductID: productID,
				Type:      enums.CartLineWarningClampedToStock,
				Message:   fmt.Sprintf("quantity reduced from %d to %d", qty, snap.Stock),
			})
		}

		line := Line{
			ProductID:      productID,
			Title:          snap.Title,
			UnitPriceCents: snap.UnitPriceCents,
			Quantity:       qty,
			Stock:          snap.Stock,
			Promotional:    snap.Promotional,
		}
		if snap.SellerResolved() {
			line.SellerID = snap.SellerID
			tier, err := enums.ParseSubscriptionTier(snap.SellerTier)
			if err != nil {
				warnings = append(warnings, Warning{ProductID: productID, Type: enums.CartLineWarningUnknownTier, Message: fmt.Sprintf("seller tier %q is not recognised", snap.SellerTier)})
				tier = enums.SubscriptionTier(snap.SellerTier)
			}
			line.SellerTier = tier
		} else {
			warnings = append(warnings, Warning{ProductID: productID, Type: enums.CartLineWarningSellerInvalid, Message: "seller could not be resolved; line will not be paid out"})
		}

		if err := c.Add(line); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart line")
		}
	}

	if err := c.Validate(); err != nil {
		return nil, warnings, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart cannot be checked out").
			WithDetails(map[string]any{"warnings": warnings})
	}
	return c, warnings, nil
}
