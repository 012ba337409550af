package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	keys        map[string]bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]bool{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	if f.setNXError != nil {
		return false, f.setNXError
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "pf:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
		f.lastDeleted = key
	}
	return nil
}

func TestClaimFirstThenDuplicate(t *testing.T) {
	store := newFakeStore()
	guard, err := NewGuard(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	eventID := uuid.New()
	delivered, err := guard.Claim(context.Background(), "outbox-publisher", eventID)
	if err != nil || delivered {
		t.Fatalf("first claim: delivered=%v err=%v", delivered, err)
	}
	expectedKey := "pf:idempotency:evt:delivered:outbox-publisher:" + eventID.String()
	if store.lastKey != expectedKey {
		t.Fatalf("unexpected key %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl %v", store.lastTTL)
	}

	delivered, err = guard.Claim(context.Background(), "outbox-publisher", eventID)
	if err != nil || !delivered {
		t.Fatalf("second claim should report delivered: delivered=%v err=%v", delivered, err)
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newFakeStore()
	guard, _ := NewGuard(store, time.Hour)
	eventID := uuid.New()

	if _, err := guard.Claim(context.Background(), "outbox-publisher", eventID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := guard.Release(context.Background(), "outbox-publisher", eventID); err != nil {
		t.Fatalf("release: %v", err)
	}
	delivered, err := guard.Claim(context.Background(), "outbox-publisher", eventID)
	if err != nil || delivered {
		t.Fatalf("claim after release: delivered=%v err=%v", delivered, err)
	}
}

func TestClaimValidation(t *testing.T) {
	guard, _ := NewGuard(newFakeStore(), time.Hour)
	if _, err := guard.Claim(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected missing publisher to fail")
	}
	if _, err := guard.Claim(context.Background(), "outbox-publisher", uuid.Nil); err == nil {
		t.Fatal("expected nil event id to fail")
	}
	if _, err := NewGuard(nil, time.Hour); err == nil {
		t.Fatal("expected nil store to fail")
	}
}

func TestClaimPropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.setNXError = errors.New("redis down")
	guard, _ := NewGuard(store, time.Hour)
	if _, err := guard.Claim(context.Background(), "outbox-publisher", uuid.New()); err == nil {
		t.Fatal("expected store error")
	}
}
