package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Recorder writes entry batches atomically.
type Recorder interface {
	Record(ctx context.Context, entries []Entry) error
	RecordTx(ctx context.Context, tx *gorm.DB, entries []Entry) error
	Reverse(ctx context.Context, orderID uuid.UUID, reason string) ([]Entry, error)
	ReverseTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) ([]Entry, error)
	List(ctx context.Context, orderID uuid.UUID) ([]Entry, error)
}

type recorder struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewRecorder wires a ledger recorder with the provided repository.
func NewRecorder(repo Repository, tx txRunner) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &recorder{repo: repo, tx: tx, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Record validates and writes entries in one transaction; nothing is written
// if any entry fails.
func (r *recorder) Record(ctx context.Context, entries []Entry) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return r.RecordTx(ctx, tx, entries)
	})
}

// RecordTx is Record inside a caller-owned transaction.
func (r *recorder) RecordTx(ctx context.Context, tx *gorm.DB, entries []Entry) error {
	if len(entries) == 0 {
		return ErrNothingToRecord
	}
	if err := Balanced(entries); err != nil {
		return err
	}
	rows := make([]models.LedgerEntry, 0, len(entries))
	for i, e := range entries {
		if e.OrderID == uuid.Nil {
			return fmt.Errorf("ledger entry %d missing order id", i)
		}
		if !e.PartyType.IsValid() || !e.Type.IsValid() {
			return fmt.Errorf("ledger entry %d has invalid party %q or type %q", i, e.PartyType, e.Type)
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		rows = append(rows, toModel(e, i))
	}
	return r.repo.WithTx(tx).CreateBatch(ctx, rows)
}

// Reverse appends refund entries mirroring every original entry of orderID.
func (r *recorder) Reverse(ctx context.Context, orderID uuid.UUID, reason string) ([]Entry, error) {
	var out []Entry
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = r.ReverseTx(ctx, tx, orderID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReverseTx is Reverse inside a caller-owned transaction.
func (r *recorder) ReverseTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) ([]Entry, error) {
	repo := r.repo.WithTx(tx)
	reversed, err := repo.HasReversal(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if reversed {
		return nil, ErrAlreadyReversed
	}
	rows, err := repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	originals := make([]Entry, 0, len(rows))
	for _, row := range rows {
		originals = append(originals, fromModel(row))
	}
	mirrors := Reversals(originals, reason, r.now())
	if err := r.RecordTx(ctx, tx, mirrors); err != nil {
		return nil, err
	}
	return mirrors, nil
}

func (r *recorder) List(ctx context.Context, orderID uuid.UUID) ([]Entry, error) {
	rows, err := r.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func toModel(e Entry, lineNo int) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          e.ID,
		OrderID:     e.OrderID,
		PartyType:   e.PartyType,
		PartyID:     e.PartyID,
		Direction:   e.Direction,
		EntryType:   e.Type,
		AmountCents: e.AmountCents,
		Memo:        e.Memo,
		ReversalOf:  e.ReversalOf,
		LineNo:      lineNo,
		CreatedAt:   e.CreatedAt,
	}
}

func fromModel(row models.LedgerEntry) Entry {
	return Entry{
		ID:          row.ID,
		OrderID:     row.OrderID,
		PartyType:   row.PartyType,
		PartyID:     row.PartyID,
		Direction:   row.Direction,
		Type:        row.EntryType,
		AmountCents: row.AmountCents,
		Memo:        row.Memo,
		ReversalOf:  row.ReversalOf,
		CreatedAt:   row.CreatedAt,
	}
}
