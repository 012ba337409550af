package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/api/responses"
	"github.com/angelmondragon/packfinderz-settlement/api/validators"
	"github.com/angelmondragon/packfinderz-settlement/internal/cart"
	checkoutsvc "github.com/angelmondragon/packfinderz-settlement/internal/checkout"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

type checkoutRequest struct {
	BuyerID       uuid.UUID        `json:"buyer_id" validate:"required"`
	Items         []cart.ItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string           `json:"payment_method" validate:"omitempty,max=32"`
	Tier          string           `json:"tier,omitempty" validate:"omitempty,max=32"`
	RedeemReward  bool             `json:"redeem_reward"`
}

type refundRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=256"`
}

// toEngineRequest normalises the wire values. Unknown tiers and methods are
// passed through so the engine can apply its fallback rates and warn.
func (p checkoutRequest) toEngineRequest() checkoutsvc.Request {
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		method = enums.PaymentMethod(strings.ToLower(strings.TrimSpace(p.PaymentMethod)))
	}
	return checkoutsvc.Request{
		BuyerID:       p.BuyerID,
		Items:         p.Items,
		PaymentMethod: method,
		Tier:          enums.SubscriptionTier(strings.ToLower(strings.TrimSpace(p.Tier))),
		RedeemReward:  p.RedeemReward,
	}
}

// CartQuote prices a cart against the buyer's loyalty state without committing.
func CartQuote(engine checkoutsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout engine unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithBuyerID(r.Context(), payload.BuyerID.String())
		outcome, err := engine.Quote(ctx, payload.toEngineRequest())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// Checkout settles and commits the buyer's cart.
func Checkout(engine checkoutsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout engine unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(payload.PaymentMethod) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"payment_method": "is required"}))
			return
		}

		ctx := logg.WithBuyerID(r.Context(), payload.BuyerID.String())
		outcome, err := engine.Checkout(ctx, payload.toEngineRequest())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}

// RefundOrder reverses a committed order's settlement.
func RefundOrder(engine checkoutsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout engine unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		reason := validators.SanitizeString(payload.Reason, 256)
		if reason == "" {
			reason = "refund"
		}

		ctx := logg.WithOrderID(r.Context(), orderID.String())
		reversal, err := engine.Refund(ctx, orderID, reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, reversal)
	}
}

// FeeSchedule exposes the active fee rates.
func FeeSchedule(engine checkoutsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout engine unavailable"))
			return
		}
		responses.WriteSuccess(w, engine.FeeSchedule())
	}
}
