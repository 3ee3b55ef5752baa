package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "jm:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewManager(&fakeStore{}, -time.Second); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestCheckAndMarkProcessed(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	eventID := uuid.New()

	processed, err := manager.CheckAndMarkProcessed(context.Background(), "presence-worker", eventID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatal("first sighting must not be processed")
	}
	wantKey := "jm:idempotency:evt:processed:presence-worker:" + eventID.String()
	if store.lastKey != wantKey {
		t.Fatalf("unexpected key %s", store.lastKey)
	}
	if store.lastTTL != time.Hour {
		t.Fatalf("unexpected ttl %s", store.lastTTL)
	}

	store.setNXResult = false
	processed, err = manager.CheckAndMarkProcessed(context.Background(), "presence-worker", eventID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("second sighting must report processed")
	}
}

func TestCheckAndMarkProcessedErrors(t *testing.T) {
	store := &fakeStore{setNXError: errors.New("redis down")}
	manager, _ := NewManager(store, time.Hour)

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "presence-worker", uuid.New()); err == nil {
		t.Fatal("expected store error to surface")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected error for empty consumer")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "presence-worker", uuid.Nil); err == nil {
		t.Fatal("expected error for nil event id")
	}
}

func TestDelete(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, _ := NewManager(store, time.Hour)
	eventID := uuid.New()

	if err := manager.Delete(context.Background(), "presence-worker", eventID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	wantKey := "jm:idempotency:evt:processed:presence-worker:" + eventID.String()
	if store.lastDeleted != wantKey {
		t.Fatalf("unexpected deleted key %s", store.lastDeleted)
	}
}
