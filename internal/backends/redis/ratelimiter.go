package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	windowKeyNameTemplate = "_issuebot_rwin_%s_%d"
)

// RateLimiter is a fixed-window counter. Each window is one Redis counter
// that expires after two windows.
type RateLimiter struct {
	cli *redis.Client
	now func() time.Time
}

func NewRateLimiter(cli *redis.Client) *RateLimiter {
	return &RateLimiter{cli: cli, now: time.Now}
}

// Acquire counts the call even when it is denied, so a caller hammering a
// full window stays denied until the window rolls over.
func (s *RateLimiter) Acquire(ctx context.Context, scope string, ratePerWindow int, window time.Duration) (bool, error) {
	if ratePerWindow <= 0 {
		return false, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	seconds := max(int64(window/time.Second), 1)
	epochWin := s.now().Unix() / seconds

	cacheKey := getWindowKeyName(scope, epochWin)
	var incr *redis.IntCmd
	_, err := s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, cacheKey)
		pipe.Expire(ctx, cacheKey, 2*window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(ratePerWindow), nil
}

func getWindowKeyName(scope string, epochWin int64) string {
	return fmt.Sprintf(windowKeyNameTemplate, scope, epochWin)
}
