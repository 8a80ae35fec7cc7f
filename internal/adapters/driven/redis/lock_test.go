package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client
}

func TestLock_OwnerID_Unique(t *testing.T) {
	client := setupTestRedis(t)

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestLock_Acquire(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "document:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected to acquire lock")
	}
}

func TestLock_Acquire_HeldByOtherWorker(t *testing.T) {
	client := setupTestRedis(t)
	worker1 := NewLock(client)
	worker2 := NewLock(client)
	ctx := context.Background()

	acquired, err := worker1.Acquire(ctx, "document:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected first worker to acquire")
	}

	acquired, err = worker2.Acquire(ctx, "document:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected second worker to be refused")
	}

	// A different document is independent
	acquired, err = worker2.Acquire(ctx, "document:doc-2", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected lock on another document to succeed")
	}
}

func TestLock_ReleaseAllowsReacquire(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if acquired, err := lock.Acquire(ctx, "document:doc-1", 10*time.Second); err != nil || !acquired {
		t.Fatalf("expected acquire, got acquired=%v err=%v", acquired, err)
	}

	if err := lock.Release(ctx, "document:doc-1"); err != nil {
		t.Fatalf("unexpected error on release: %v", err)
	}

	acquired, err := lock.Acquire(ctx, "document:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected to acquire lock after release")
	}
}

func TestLock_Release_NotHeld(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Release(context.Background(), "document:doc-1"); err != nil {
		t.Errorf("unexpected error releasing unheld lock: %v", err)
	}
}

func TestLock_Release_ByDifferentOwner(t *testing.T) {
	client := setupTestRedis(t)
	worker1 := NewLock(client)
	worker2 := NewLock(client)
	ctx := context.Background()

	if acquired, err := worker1.Acquire(ctx, "document:doc-1", 10*time.Second); err != nil || !acquired {
		t.Fatalf("expected acquire, got acquired=%v err=%v", acquired, err)
	}

	// Another worker releasing must not free it
	if err := worker2.Release(ctx, "document:doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired, err := worker2.Acquire(ctx, "document:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected lock to still be held by the first worker")
	}
}

func TestLock_Extend(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if acquired, err := lock.Acquire(ctx, "document:doc-1", 1*time.Second); err != nil || !acquired {
		t.Fatalf("expected acquire, got acquired=%v err=%v", acquired, err)
	}

	if err := lock.Extend(ctx, "document:doc-1", 10*time.Second); err != nil {
		t.Fatalf("unexpected error on extend: %v", err)
	}
}

func TestLock_Extend_NotHeld(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewLock(client)

	err := lock.Extend(context.Background(), "document:doc-1", 10*time.Second)
	if !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld, got %v", err)
	}
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	worker1 := NewLock(client)
	worker2 := NewLock(client)
	ctx := context.Background()

	if acquired, err := worker1.Acquire(ctx, "document:doc-1", 1*time.Second); err != nil || !acquired {
		t.Fatalf("expected acquire, got acquired=%v err=%v", acquired, err)
	}

	mr.FastForward(2 * time.Second)

	acquired, err := worker2.Acquire(ctx, "document:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected lock to be free after TTL expiry")
	}

	// The first worker no longer holds it and must not extend it.
	if err := worker1.Extend(ctx, "document:doc-1", 10*time.Second); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld after expiry, got %v", err)
	}
}

func TestLock_Extend_ByDifferentOwner(t *testing.T) {
	client := setupTestRedis(t)
	worker1 := NewLock(client)
	worker2 := NewLock(client)
	ctx := context.Background()

	if acquired, err := worker1.Acquire(ctx, "document:doc-1", 10*time.Second); err != nil || !acquired {
		t.Fatalf("expected acquire, got acquired=%v err=%v", acquired, err)
	}

	if err := worker2.Extend(ctx, "document:doc-1", 20*time.Second); err == nil {
		t.Error("expected error when a different owner tries to extend")
	}
}

func TestLock_Ping(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
