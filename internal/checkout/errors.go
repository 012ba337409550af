package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/packfinderz-settlement/internal/cart"
	"github.com/angelmondragon/packfinderz-settlement/internal/fees"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	dbpkg "github.com/angelmondragon/packfinderz-settlement/pkg/db"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

var (
	ErrInvalidCart          = cart.ErrInvalidCart
	ErrUnknownTier          = fees.ErrUnknownTier
	ErrUnknownPaymentMethod = fees.ErrUnknownPaymentMethod
	ErrLedgerCommit         = errors.New("ledger commit failed")
	ErrLoyaltyConflict      = errors.New("loyalty state changed during checkout")
	ErrOrderNotFound        = errors.New("order not found")
	ErrAlreadyRefunded      = errors.New("order already refunded")
)

// commitFailure hides the internal kind behind the public CHECKOUT_FAILED code.
func commitFailure(kind, cause error) *pkgerrors.Error {
	wrapped := cause
	switch {
	case cause == nil:
		wrapped = kind
	case !errors.Is(cause, kind):
		wrapped = fmt.Errorf("%w: %w", kind, cause)
	}
	return pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, wrapped, "checkout failed, please try again").
		WithDetails(map[string]any{"failure_kind": failureKind(wrapped)})
}

// failureKind labels a commit error for logs and metrics.
func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrLoyaltyConflict):
		return "loyalty_conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ledger.ErrUnbalanced):
		return "unbalanced"
	case dbpkg.IsSerializationFailure(err):
		return "serialization"
	default:
		return "ledger_commit"
	}
}
