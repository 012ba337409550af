package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/loyalty"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

type stubLedger struct {
	entries []ledger.Entry
	err     error
}

func (s stubLedger) List(context.Context, uuid.UUID) ([]ledger.Entry, error) {
	return s.entries, s.err
}

type stubBalances map[uuid.UUID]int64

func (s stubBalances) SellerBalance(_ context.Context, sellerID uuid.UUID) (int64, error) {
	return s[sellerID], nil
}

type stubSummaries struct {
	summary loyalty.Summary
	err     error
}

func (s stubSummaries) Summary(context.Context, uuid.UUID) (loyalty.Summary, error) {
	return s.summary, s.err
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestOrderLedgerTotals(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	entries := []ledger.Entry{
		{OrderID: orderID, Direction: enums.LedgerDebit, AmountCents: 5460},
		{OrderID: orderID, Direction: enums.LedgerCredit, AmountCents: 5000},
		{OrderID: orderID, Direction: enums.LedgerCredit, AmountCents: 460},
	}
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderID", orderID.String())
	resp := httptest.NewRecorder()
	OrderLedger(stubLedger{entries: entries}, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got orderLedgerResponse
	decodeData(t, resp.Body.Bytes(), &got)
	if got.DebitsCents != 5460 || got.CreditsCents != 5460 || len(got.Entries) != 3 {
		t.Fatalf("unexpected ledger response %+v", got)
	}
}

func TestOrderLedgerNotFoundAndDependencyErrors(t *testing.T) {
	t.Parallel()

	orderID := uuid.NewString()
	resp := httptest.NewRecorder()
	OrderLedger(stubLedger{}, logger.Nop()).ServeHTTP(resp, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderID", orderID))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	OrderLedger(stubLedger{err: errors.New("db down")}, logger.Nop()).ServeHTTP(resp, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderID", orderID))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestSellerBalance(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "sellerID", sellerID.String())
	resp := httptest.NewRecorder()
	SellerBalance(stubBalances{sellerID: 3000}, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got struct {
		BalanceCents int64 `json:"balance_cents"`
	}
	decodeData(t, resp.Body.Bytes(), &got)
	if got.BalanceCents != 3000 {
		t.Fatalf("expected 3000, got %d", got.BalanceCents)
	}
}

func TestBuyerLoyalty(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	summary := loyalty.Summary{
		State:     loyalty.State{BuyerID: buyerID, CompletedOrders: 3},
		Status:    enums.LoyaltyStatusDormant,
		Remaining: 2,
	}
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "buyerID", buyerID.String())
	resp := httptest.NewRecorder()
	BuyerLoyalty(stubSummaries{summary: summary}, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got loyalty.Summary
	decodeData(t, resp.Body.Bytes(), &got)
	if got.Remaining != 2 || got.State.CompletedOrders != 3 {
		t.Fatalf("unexpected summary %+v", got)
	}
}
