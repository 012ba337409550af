package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/api/responses"
	"github.com/angelmondragon/packfinderz-settlement/api/validators"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

type ledgerLister interface {
	List(ctx context.Context, orderID uuid.UUID) ([]ledger.Entry, error)
}

type balanceReader interface {
	SellerBalance(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

type orderLedgerResponse struct {
	OrderID      uuid.UUID      `json:"order_id"`
	Entries      []ledger.Entry `json:"entries"`
	DebitsCents  int64          `json:"debits_cents"`
	CreditsCents int64          `json:"credits_cents"`
}

// OrderLedger lists every ledger entry for an order, reversals included.
func OrderLedger(entries ledgerLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if entries == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := entries.List(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries"))
			return
		}
		if len(list) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no ledger entries for order"))
			return
		}

		resp := orderLedgerResponse{OrderID: orderID, Entries: list}
		for _, entry := range list {
			if entry.Direction == enums.LedgerDebit {
				resp.DebitsCents += entry.AmountCents
			} else {
				resp.CreditsCents += entry.AmountCents
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

// SellerBalance reports a seller's running payout balance.
func SellerBalance(balances balanceReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if balances == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balances unavailable"))
			return
		}

		sellerID, err := validators.ParseUUIDParam(r, "sellerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cents, err := balances.SellerBalance(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller balance"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"seller_id": sellerID, "balance_cents": cents})
	}
}
