package flow

import (
	"sync"
	"time"
)

// TTL is a minimal in-process TTL cache. An expired entry stays until
// TakeExpired or Sweep removes it, so every entry leaves exactly once.
type TTL[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
}

type entry[V any] struct {
	val V
	exp time.Time
}

func NewTTL[K comparable, V any]() *TTL[K, V] {
	return &TTL[K, V]{data: make(map[K]entry[V])}
}

func (t *TTL[K, V]) Set(k K, v V, ttl time.Duration) {
	t.mu.Lock()
	t.data[k] = entry[V]{val: v, exp: timeNow().Add(ttl)}
	t.mu.Unlock()
}

// Take removes k and returns its value if it is present and not expired.
// Of several concurrent callers at most one gets ok == true. Expired entries
// are left for TakeExpired or Sweep.
func (t *TTL[K, V]) Take(k K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.data[k]
	if !ok || timeNow().After(e.exp) {
		var zero V
		return zero, false
	}
	delete(t.data, k)
	return e.val, true
}

// TakeExpired removes k and returns its value only if it has expired.
func (t *TTL[K, V]) TakeExpired(k K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.data[k]
	if !ok || !timeNow().After(e.exp) {
		var zero V
		return zero, false
	}
	delete(t.data, k)
	return e.val, true
}

// Sweep deletes every expired entry and returns them.
func (t *TTL[K, V]) Sweep() map[K]V {
	now := timeNow()
	expired := make(map[K]V)
	t.mu.Lock()
	for k, e := range t.data {
		if now.After(e.exp) {
			expired[k] = e.val
			delete(t.data, k)
		}
	}
	t.mu.Unlock()
	return expired
}

func (t *TTL[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}
