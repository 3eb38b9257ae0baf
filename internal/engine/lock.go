package engine

// Lock is the single-slot exclusive lock serializing migration and rollback
// attempts. TryAcquire is non-blocking: a second caller while the lock is
// held is refused immediately, there is no queue.
type Lock struct {
	slot chan struct{}
}

// NewLock creates an unheld lock.
func NewLock() *Lock {
	return &Lock{slot: make(chan struct{}, 1)}
}

// TryAcquire attempts to take the lock without blocking. Returns false if it
// is already held.
func (l *Lock) TryAcquire() bool {
	select {
	case l.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the lock. Releasing an unheld lock is a no-op, which keeps
// deferred releases on every exit path safe.
func (l *Lock) Release() {
	select {
	case <-l.slot:
	default:
	}
}

// Held reports whether the lock is currently held.
func (l *Lock) Held() bool {
	return len(l.slot) == 1
}
