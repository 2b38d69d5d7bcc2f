package manager

import (
	"context"
	"sync"
)

// keyLock serializes work per record id in arrival order. Waiters for
// different ids never block each other.
type keyLock struct {
	mu     sync.Mutex
	queues map[int64][]chan struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{queues: make(map[int64][]chan struct{})}
}

// Lock blocks until every earlier holder of id has released it, or ctx is
// done. The returned func releases the lock and must be called exactly once.
func (k *keyLock) Lock(ctx context.Context, id int64) (func(), error) {
	ticket := make(chan struct{})

	k.mu.Lock()
	q := k.queues[id]
	k.queues[id] = append(q, ticket)
	if len(q) == 0 {
		close(ticket)
	}
	k.mu.Unlock()

	select {
	case <-ticket:
		return func() { k.release(id) }, nil
	case <-ctx.Done():
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	select {
	case <-ticket:
		// Became head while cancelling; hand the turn to the next waiter.
		k.releaseLocked(id)
	default:
		q := k.queues[id]
		for i, ch := range q {
			if ch == ticket {
				k.queues[id] = append(q[:i:i], q[i+1:]...)
				break
			}
		}
	}
	return nil, ctx.Err()
}

func (k *keyLock) release(id int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.releaseLocked(id)
}

func (k *keyLock) releaseLocked(id int64) {
	q := k.queues[id][1:]
	if len(q) == 0 {
		delete(k.queues, id)
		return
	}
	k.queues[id] = q
	close(q[0])
}

// waiting reports how many holders and waiters are queued on id.
func (k *keyLock) waiting(id int64) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.queues[id])
}
