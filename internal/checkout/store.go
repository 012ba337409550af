package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/loyalty"
	"github.com/angelmondragon/packfinderz-settlement/internal/orders"
	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerWriter interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entries []ledger.Entry) error
	ReverseTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) ([]ledger.Entry, error)
}

// Batch is everything a checkout commit writes.
type Batch struct {
	Result  settlement.Result
	Entries []ledger.Entry
}

// Receipt describes a committed checkout.
type Receipt struct {
	OrderID       uuid.UUID     `json:"order_id"`
	SettlementID  uuid.UUID     `json:"settlement_id"`
	LedgerEntries int           `json:"ledger_entries"`
	Loyalty       loyalty.State `json:"loyalty"`
	RewardGranted bool          `json:"reward_granted"`
	CommittedAt   time.Time     `json:"committed_at"`
}

// Reversal describes a refunded order.
type Reversal struct {
	OrderID       uuid.UUID      `json:"order_id"`
	SettlementID  uuid.UUID      `json:"settlement_id"`
	BuyerID       uuid.UUID      `json:"buyer_id"`
	RefundedCents int64          `json:"refunded_cents"`
	Entries       []ledger.Entry `json:"entries"`
	Loyalty       loyalty.State  `json:"loyalty"`
	ReversedAt    time.Time      `json:"reversed_at"`
}

// Store is the persistence collaborator of the engine. Commit and Reverse are
// each all or nothing.
type Store interface {
	Commit(ctx context.Context, batch Batch) (Receipt, error)
	Reverse(ctx context.Context, orderID uuid.UUID, reason string) (Reversal, error)
}

type gormStore struct {
	tx      txRunner
	repo    Repository
	orders  orders.Repository
	loyalty loyalty.Repository
	ledger  ledgerWriter
	outbox  outboxPublisher
	tracker loyalty.Tracker
	now     func() time.Time
}

// NewStore wires the gorm-backed store.
func NewStore(
	tx txRunner,
	repo Repository,
	orderRepo orders.Repository,
	loyaltyRepo loyalty.Repository,
	ledgerWriter ledgerWriter,
	outboxPublisher outboxPublisher,
	tracker loyalty.Tracker,
) (Store, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if loyaltyRepo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if ledgerWriter == nil {
		return nil, fmt.Errorf("ledger recorder required")
	}
	if outboxPublisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &gormStore{
		tx:      tx,
		repo:    repo,
		orders:  orderRepo,
		loyalty: loyaltyRepo,
		ledger:  ledgerWriter,
		outbox:  outboxPublisher,
		tracker: tracker,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Commit writes the order, the loyalty update, the settlement with payouts,
// the ledger batch, seller balances and the outbox events in one transaction.
// The loyalty row is locked first and must still be at the version the
// result was priced against.
func (s *gormStore) Commit(ctx context.Context, batch Batch) (Receipt, error) {
	result := batch.Result
	var receipt Receipt
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loyaltyRepo := s.loyalty.WithTx(tx)
		current, err := loyaltyRepo.GetForUpdate(ctx, result.BuyerID)
		if err != nil {
			return fmt.Errorf("lock loyalty state: %w", err)
		}
		if current.Version != result.Loyalty.Version {
			return fmt.Errorf("%w: priced at version %d, stored %d", ErrLoyaltyConflict, result.Loyalty.Version, current.Version)
		}

		orderRepo := s.orders.WithTx(tx)
		order := &models.BuyerOrder{
			ID:            result.OrderID,
			BuyerID:       result.BuyerID,
			Status:        enums.OrderStatusCompleted,
			PaymentMethod: result.PaymentMethod,
			SubtotalCents: result.RawSubtotalCents,
			DiscountCents: result.DiscountCents,
			TotalCents:    result.FinalTotalCents,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		count, err := orderRepo.CountCompleted(ctx, result.BuyerID)
		if err != nil {
			return fmt.Errorf("count completed orders: %w", err)
		}
		next := s.tracker.Recompute(result.Loyalty, count)
		version, err := loyaltyRepo.Save(ctx, next, current.Version)
		if err != nil {
			if errors.Is(err, loyalty.ErrVersionConflict) {
				return fmt.Errorf("%w: %w", ErrLoyaltyConflict, err)
			}
			return fmt.Errorf("save loyalty state: %w", err)
		}
		next.Version = version

		row := settlementRow(result)
		if err := s.repo.WithTx(tx).CreateSettlement(ctx, row); err != nil {
			return fmt.Errorf("create settlement: %w", err)
		}
		if err := s.ledger.RecordTx(ctx, tx, batch.Entries); err != nil {
			return fmt.Errorf("record ledger: %w", err)
		}
		if err := s.adjustBalances(ctx, tx, result.Payouts, 1); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementCommitted,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   row.ID,
			Actor:         buyerActor(result.BuyerID),
			Data:          committedEvent(result, row.ID),
		}); err != nil {
			return fmt.Errorf("emit settlement event: %w", err)
		}

		granted := next.DiscountApplied && next.LastGrantedAt > result.Loyalty.LastGrantedAt
		if granted {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLoyaltyRewardGranted,
				AggregateType: enums.AggregateLoyalty,
				AggregateID:   result.BuyerID,
				Actor:         buyerActor(result.BuyerID),
				Data: payloads.LoyaltyRewardGrantedEvent{
					BuyerID:         result.BuyerID,
					Milestone:       next.LastGrantedAt,
					CompletedOrders: next.CompletedOrders,
					Message:         s.tracker.Message(next),
				},
			}); err != nil {
				return fmt.Errorf("emit loyalty event: %w", err)
			}
		}

		receipt = Receipt{
			OrderID:       result.OrderID,
			SettlementID:  row.ID,
			LedgerEntries: len(batch.Entries),
			Loyalty:       next,
			RewardGranted: granted,
			CommittedAt:   s.now(),
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// Reverse refunds a completed order: mirror ledger entries, seller balance
// debits, the order status and the buyer's loyalty count move together.
func (s *gormStore) Reverse(ctx context.Context, orderID uuid.UUID, reason string) (Reversal, error) {
	var out Reversal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if order.Status != enums.OrderStatusCompleted {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrAlreadyRefunded, "order is not refundable").
				WithDetails(map[string]any{"status": order.Status})
		}

		row, err := s.repo.WithTx(tx).FindSettlementByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load settlement: %w", err)
		}

		mirrors, err := s.ledger.ReverseTx(ctx, tx, orderID, reason)
		if err != nil {
			if errors.Is(err, ledger.ErrAlreadyReversed) {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrAlreadyRefunded, "order is not refundable")
			}
			return fmt.Errorf("reverse ledger: %w", err)
		}

		payouts := make([]settlement.Payout, 0, len(row.Payouts))
		for _, p := range row.Payouts {
			payouts = append(payouts, settlement.Payout{SellerID: p.SellerID, AmountCents: p.AmountCents})
		}
		if err := s.adjustBalances(ctx, tx, payouts, -1); err != nil {
			return err
		}

		if err := orderRepo.MarkRefunded(ctx, orderID, reason); err != nil {
			if errors.Is(err, orders.ErrNotRefundable) {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrAlreadyRefunded, "order is not refundable")
			}
			return fmt.Errorf("mark order refunded: %w", err)
		}

		loyaltyRepo := s.loyalty.WithTx(tx)
		current, err := loyaltyRepo.GetForUpdate(ctx, order.BuyerID)
		if err != nil {
			return fmt.Errorf("lock loyalty state: %w", err)
		}
		count, err := orderRepo.CountCompleted(ctx, order.BuyerID)
		if err != nil {
			return fmt.Errorf("count completed orders: %w", err)
		}
		next := s.tracker.Recompute(current, count)
		version, err := loyaltyRepo.Save(ctx, next, current.Version)
		if err != nil {
			return fmt.Errorf("save loyalty state: %w", err)
		}
		next.Version = version

		reversedAt := s.now()
		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementReversed,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   row.ID,
			Actor:         buyerActor(order.BuyerID),
			Data: payloads.SettlementReversedEvent{
				OrderID:       orderID,
				SettlementID:  row.ID,
				BuyerID:       order.BuyerID,
				RefundedCents: row.FinalTotalCents,
				Reason:        reason,
				ReversedAt:    reversedAt,
			},
		}); err != nil {
			return fmt.Errorf("emit reversal event: %w", err)
		}

		out = Reversal{
			OrderID:       orderID,
			SettlementID:  row.ID,
			BuyerID:       order.BuyerID,
			RefundedCents: row.FinalTotalCents,
			Entries:       mirrors,
			Loyalty:       next,
			ReversedAt:    reversedAt,
		}
		return nil
	})
	if err != nil {
		return Reversal{}, err
	}
	return out, nil
}

// adjustBalances applies sign*payout to each seller, ordered by seller id so
// concurrent commits take row locks in the same order.
func (s *gormStore) adjustBalances(ctx context.Context, tx *gorm.DB, payouts []settlement.Payout, sign int64) error {
	ordered := append([]settlement.Payout(nil), payouts...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SellerID.String() < ordered[j].SellerID.String()
	})
	repo := s.repo.WithTx(tx)
	for _, p := range ordered {
		if p.AmountCents == 0 {
			continue
		}
		if err := repo.AdjustSellerBalance(ctx, p.SellerID, sign*p.AmountCents); err != nil {
			return fmt.Errorf("adjust seller %s balance: %w", p.SellerID, err)
		}
	}
	return nil
}

func settlementRow(result settlement.Result) *models.Settlement {
	row := &models.Settlement{
		ID:                      uuid.New(),
		OrderID:                 result.OrderID,
		BuyerID:                 result.BuyerID,
		RawSubtotalCents:        result.RawSubtotalCents,
		IntroDiscountCents:      result.IntroDiscountCents,
		RewardDiscountCents:     result.RewardDiscountCents,
		DiscountedSubtotalCents: result.DiscountedSubtotalCents,
		PlatformFeeCents:        result.PlatformFeeCents,
		GatewayFeeCents:         result.GatewayFeeCents,
		FinalTotalCents:         result.FinalTotalCents,
		UnallocatedCents:        result.UnallocatedCents,
		PlatformFeeRate:         result.PlatformFeeRate,
		GatewayFeeRate:          result.GatewayFeeRate,
		PaymentMethod:           result.PaymentMethod,
		SellerTier:              result.Tier,
		FeeScheduleVersion:      result.FeeScheduleVersion,
	}
	for _, p := range result.Payouts {
		row.Payouts = append(row.Payouts, models.SettlementPayout{SellerID: p.SellerID, AmountCents: p.AmountCents})
	}
	return row
}

func committedEvent(result settlement.Result, settlementID uuid.UUID) payloads.SettlementCommittedEvent {
	event := payloads.SettlementCommittedEvent{
		OrderID:            result.OrderID,
		SettlementID:       settlementID,
		BuyerID:            result.BuyerID,
		PaymentMethod:      result.PaymentMethod,
		RawSubtotalCents:   result.RawSubtotalCents,
		DiscountCents:      result.DiscountCents,
		PlatformFeeCents:   result.PlatformFeeCents,
		GatewayFeeCents:    result.GatewayFeeCents,
		FinalTotalCents:    result.FinalTotalCents,
		UnallocatedCents:   result.UnallocatedCents,
		FeeScheduleVersion: result.FeeScheduleVersion,
	}
	for _, p := range result.Payouts {
		event.Payouts = append(event.Payouts, payloads.SellerPayout{SellerID: p.SellerID, AmountCents: p.AmountCents})
	}
	return event
}

func buyerActor(buyerID uuid.UUID) *outbox.ActorRef {
	id := buyerID
	return &outbox.ActorRef{BuyerID: &id, Kind: "buyer"}
}
