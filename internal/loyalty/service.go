package loyalty

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

type orderHistory interface {
	CountCompleted(ctx context.Context, buyerID uuid.UUID) (int, error)
}

// Service reads a buyer's loyalty state recomputed against order history.
type Service interface {
	Load(ctx context.Context, buyerID uuid.UUID) (State, error)
	Summary(ctx context.Context, buyerID uuid.UUID) (Summary, error)
	Tracker() Tracker
}

type service struct {
	repo    Repository
	orders  orderHistory
	tracker Tracker
}

// NewService wires the loyalty reader.
func NewService(repo Repository, orders orderHistory, tracker Tracker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order history required")
	}
	return &service{repo: repo, orders: orders, tracker: tracker}, nil
}

// Load returns the stored state recomputed against the current completed-order
// count. Nothing is written; the stored version is preserved so a later commit
// can detect concurrent changes.
func (s *service) Load(ctx context.Context, buyerID uuid.UUID) (State, error) {
	if buyerID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	state, err := s.repo.Get(ctx, buyerID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty state")
	}
	count, err := s.orders.CountCompleted(ctx, buyerID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count completed orders")
	}
	return s.tracker.Recompute(state, count), nil
}

func (s *service) Summary(ctx context.Context, buyerID uuid.UUID) (Summary, error) {
	state, err := s.Load(ctx, buyerID)
	if err != nil {
		return Summary{}, err
	}
	return s.tracker.Summarize(state), nil
}

func (s *service) Tracker() Tracker {
	return s.tracker
}
