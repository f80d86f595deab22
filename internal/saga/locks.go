package saga

import "sync"

// LockRegistry hands out process-wide mutexes keyed by aggregate. Handlers
// acquire before touching the aggregate so concurrent sagas on the same team
// cannot interleave.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: map[string]*sync.Mutex{}}
}

// Acquire blocks until the lock for key is held and returns the release func.
func (r *LockRegistry) Acquire(key string) func() {
	r.mu.Lock()
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	r.mu.Unlock()
	m.Lock()
	return m.Unlock
}
