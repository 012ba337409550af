package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/redis"
)

// Guard remembers which outbox events a publisher already delivered, so a
// crash between Publish and MarkPublished does not fan the event out twice.
// Keys follow `pf:idempotency:evt:delivered:<publisher>:<event_id>`.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewGuard builds a delivery guard whose marks expire after ttl.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Claim returns true when eventID was already delivered by publisher;
// otherwise it records the claim and returns false.
func (g *Guard) Claim(ctx context.Context, publisher string, eventID uuid.UUID) (bool, error) {
	key, err := g.deliveredKey(publisher, eventID)
	if err != nil {
		return false, err
	}
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Release drops a claim after a failed publish so the next attempt retries.
func (g *Guard) Release(ctx context.Context, publisher string, eventID uuid.UUID) error {
	key, err := g.deliveredKey(publisher, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) deliveredKey(publisher string, eventID uuid.UUID) (string, error) {
	if publisher == "" {
		return "", errors.New("publisher name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey(fmt.Sprintf("evt:delivered:%s", publisher), eventID.String()), nil
}
