package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitplan/internal/infra/metrics"
)

// RateLimiter caps how many poll sessions a user may open per window.
// Each window gets its own key, suffixed with the window index.
type RateLimiter struct {
	client RedisClient
	now    func() time.Time
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow records one hit for key and reports whether it is within limit.
// A non-positive limit disables limiting.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	wk := windowKey(key, r.now(), window)

	hits, err := r.client.Incr(ctx, wk)
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if hits == 1 {
		if err := r.client.Expire(ctx, wk, window); err != nil {
			return false, fmt.Errorf("rate limit %s: %w", key, err)
		}
	}
	if hits > int64(limit) {
		metrics.IncRateLimited(actionOf(key))
		return false, nil
	}
	return true, nil
}

func windowKey(key string, at time.Time, window time.Duration) string {
	return fmt.Sprintf("%s:%d", key, at.UnixNano()/int64(window))
}

const rateLimitPrefix = "rate_limit"

func UserActionKey(userID, action string) string {
	return rateLimitPrefix + ":" + action + ":" + userID
}

func actionOf(key string) string {
	rest, ok := strings.CutPrefix(key, rateLimitPrefix+":")
	if !ok {
		return "unknown"
	}
	action, _, _ := strings.Cut(rest, ":")
	return action
}
