package memory

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is an in-process fixed-window counter. Windows are bucketed by
// integer multiples of the window length.
type RateLimiter struct {
	mu       sync.Mutex
	now      func() time.Time
	counters map[string]counter
}

type counter struct {
	epoch int64
	count int
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{now: time.Now, counters: make(map[string]counter)}
}

func (r *RateLimiter) Acquire(ctx context.Context, scope string, ratePerWindow int, window time.Duration) (bool, error) {
	if ratePerWindow <= 0 {
		return false, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	epoch := r.now().UnixNano() / int64(window)
	key := scope + "#" + strconv.FormatInt(int64(window), 10)

	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.counters[key]
	if c.epoch != epoch {
		c = counter{epoch: epoch}
	}
	if c.count >= ratePerWindow {
		return false, nil
	}
	c.count++
	r.counters[key] = c
	return true, nil
}
