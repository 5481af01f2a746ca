package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHashLocksSerializeSameHash(t *testing.T) {
	locks := newHashLocks()
	unlock, err := locks.acquire(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}

	other, err := locks.acquire(context.Background(), "def")
	if err != nil {
		t.Fatalf("different hash should not block: %v", err)
	}
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.acquire(ctx, "abc"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second holder to wait, got %v", err)
	}

	unlock()
	again, err := locks.acquire(context.Background(), "abc")
	if err != nil {
		t.Fatalf("lock not released: %v", err)
	}
	again()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Fatalf("idle locks retained: %d", len(locks.locks))
	}
}
