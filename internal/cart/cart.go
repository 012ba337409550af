// Package cart holds the buyer cart and the pure pricing rules applied to it
// before settlement.
package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// ErrInvalidCart reports a cart that cannot be priced: empty, a non-positive
// quantity, a negative price, or no line with a resolvable seller.
var ErrInvalidCart = errors.New("invalid cart")

// Line is one priced item in the cart. A zero SellerID marks a line whose
// seller could not be resolved from the catalog.
type Line struct {
	Key            string                 `json:"key"`
	ProductID      uuid.UUID              `json:"product_id"`
	SellerID       uuid.UUID              `json:"seller_id"`
	SellerTier     enums.SubscriptionTier `json:"seller_tier"`
	Title          string                 `json:"title,omitempty"`
	UnitPriceCents int64                  `json:"unit_price_cents"`
	Quantity       int                    `json:"quantity"`
	Stock          int                    `json:"stock"`
	Promotional    bool                   `json:"promotional,omitempty"`
}

// BillableQuantity is the quantity clamped to available stock, never negative.
func (l Line) BillableQuantity() int {
	qty := l.Quantity
	if qty > l.Stock {
		qty = l.Stock
	}
	if qty < 0 {
		return 0
	}
	return qty
}

// GrossCents is unit price times billable quantity.
func (l Line) GrossCents() int64 {
	if l.UnitPriceCents <= 0 {
		return 0
	}
	return l.UnitPriceCents * int64(l.BillableQuantity())
}

// HasSeller reports whether the line can be paid out.
func (l Line) HasSeller() bool {
	return l.SellerID != uuid.Nil
}

// Cart is an insertion-ordered set of lines keyed by Line.Key.
type Cart struct {
	keys  []string
	lines map[string]Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: map[string]Line{}}
}

// Add appends line. A line without a key is keyed by its product id; keys must
// be unique.
func (c *Cart) Add(line Line) error {
	if line.Key == "" {
		line.Key = line.ProductID.String()
	}
	if _, exists := c.lines[line.Key]; exists {
		return fmt.Errorf("%w: duplicate line key %q", ErrInvalidCart, line.Key)
	}
	if c.lines == nil {
		c.lines = map[string]Line{}
	}
	c.keys = append(c.keys, line.Key)
	c.lines[line.Key] = line
	return nil
}

// Get returns the line stored under key.
func (c *Cart) Get(key string) (Line, bool) {
	if c == nil {
		return Line{}, false
	}
	line, ok := c.lines[key]
	return line, ok
}

// Lines returns the lines in insertion order.
func (c *Cart) Lines() []Line {
	if c == nil {
		return nil
	}
	out := make([]Line, 0, len(c.keys))
	for _, key := range c.keys {
		out = append(out, c.lines[key])
	}
	return out
}

func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Clone returns an independent copy, used when pricing appends reward lines.
func (c *Cart) Clone() *Cart {
	out := New()
	if c == nil {
		return out
	}
	for _, line := range c.Lines() {
		_ = out.Add(line)
	}
	return out
}

// Validate rejects carts that cannot enter settlement.
func (c *Cart) Validate() error {
	if c.Len() == 0 {
		return fmt.Errorf("%w: cart is empty", ErrInvalidCart)
	}
	resolvable := false
	for _, line := range c.Lines() {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %q quantity must be positive", ErrInvalidCart, line.Key)
		}
		if line.UnitPriceCents < 0 {
			return fmt.Errorf("%w: line %q has a negative price", ErrInvalidCart, line.Key)
		}
		if line.HasSeller() {
			resolvable = true
		}
	}
	if !resolvable {
		return fmt.Errorf("%w: no line has a resolvable seller", ErrInvalidCart)
	}
	return nil
}

// Tiers returns the distinct seller tiers present on resolvable lines, in
// first-seen order.
func (c *Cart) Tiers() []enums.SubscriptionTier {
	var out []enums.SubscriptionTier
	seen := map[enums.SubscriptionTier]struct{}{}
	for _, line := range c.Lines() {
		if !line.HasSeller() {
			continue
		}
		if _, ok := seen[line.SellerTier]; ok {
			continue
		}
		seen[line.SellerTier] = struct{}{}
		out = append(out, line.SellerTier)
	}
	return out
}
