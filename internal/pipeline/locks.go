package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// hashLocks serializes work on sources that share a content hash, so a batch
// holding two copies of one recording transcribes it once and skips the copy.
type hashLocks struct {
	mu    sync.Mutex
	locks map[string]*hashLock
}

type hashLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newHashLocks() *hashLocks {
	return &hashLocks{locks: make(map[string]*hashLock)}
}

// acquire blocks until no other file with hash is in flight. The returned
// func releases the lock.
func (h *hashLocks) acquire(ctx context.Context, hash string) (func(), error) {
	h.mu.Lock()
	l, ok := h.locks[hash]
	if !ok {
		l = &hashLock{sem: semaphore.NewWeighted(1)}
		h.locks[hash] = l
	}
	l.refs++
	h.mu.Unlock()

	drop := func() {
		h.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, hash)
		}
		h.mu.Unlock()
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		drop()
		return nil, err
	}
	return func() {
		l.sem.Release(1)
		drop()
	}, nil
}
