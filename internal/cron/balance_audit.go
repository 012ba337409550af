package cron

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
)

type ledgerTotals interface {
	SellerNetTotals(ctx context.Context) (map[uuid.UUID]int64, error)
}

type balanceLister interface {
	ListSellerBalances(ctx context.Context) (map[uuid.UUID]int64, error)
}

// BalanceAuditParams wire the seller balance audit.
type BalanceAuditParams struct {
	Logger   *logger.Logger
	Ledger   ledgerTotals
	Balances balanceLister
	Metrics  *metrics.MaintenanceMetrics
}

// Drift is a seller whose stored balance disagrees with its ledger net.
type Drift struct {
	SellerID        uuid.UUID
	BalanceCents    int64
	LedgerCents     int64
	DifferenceCents int64
}

type balanceAuditJob struct {
	logg     *logger.Logger
	ledger   ledgerTotals
	balances balanceLister
	metrics  *metrics.MaintenanceMetrics
}

// NewBalanceAuditJob compares every seller balance with the ledger. Drift is
// reported, never corrected.
func NewBalanceAuditJob(params BalanceAuditParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil || params.Balances == nil {
		return nil, fmt.Errorf("ledger and balance readers required")
	}
	return &balanceAuditJob{
		logg:     params.Logger,
		ledger:   params.Ledger,
		balances: params.Balances,
		metrics:  params.Metrics,
	}, nil
}

func (j *balanceAuditJob) Name() string { return "balance-audit" }

func (j *balanceAuditJob) Run(ctx context.Context) error {
	totals, err := j.ledger.SellerNetTotals(ctx)
	if err != nil {
		return fmt.Errorf("ledger totals: %w", err)
	}
	balances, err := j.balances.ListSellerBalances(ctx)
	if err != nil {
		return fmt.Errorf("seller balances: %w", err)
	}

	drift := compareBalances(totals, balances)
	j.metrics.SetBalanceDrift(len(drift))
	for _, d := range drift {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"seller_id":        d.SellerID.String(),
			"balance_cents":    d.BalanceCents,
			"ledger_cents":     d.LedgerCents,
			"difference_cents": d.DifferenceCents,
		}), "seller balance drift")
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"sellers":         len(balances),
		"drifted_sellers": len(drift),
	}), "balance audit complete")
	return nil
}

func compareBalances(ledger, balances map[uuid.UUID]int64) []Drift {
	sellers := make(map[uuid.UUID]struct{}, len(ledger)+len(balances))
	for id := range ledger {
		sellers[id] = struct{}{}
	}
	for id := range balances {
		sellers[id] = struct{}{}
	}

	var out []Drift
	for id := range sellers {
		balance, net := balances[id], ledger[id]
		if balance == net {
			continue
		}
		out = append(out, Drift{SellerID: id, BalanceCents: balance, LedgerCents: net, DifferenceCents: balance - net})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].SellerID.String() < out[k].SellerID.String() })
	return out
}
