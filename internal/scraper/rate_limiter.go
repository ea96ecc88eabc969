package scraper

import (
	"context"
	"sync"
	"time"
)

// RateLimiter throttles fetches per source so scrape cycles stay polite to
// the upstream sites.
type RateLimiter struct {
	limiters map[string]*sourceLimiter
	mu       sync.RWMutex
}

// sourceLimiter is a token bucket refilled at the source's allowed rate.
type sourceLimiter struct {
	tokens chan struct{}
	refill *time.Ticker
	limit  int
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*sourceLimiter),
	}
}

// Wait blocks until the source may make a request, or until ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, source string, requestsPerMinute int) error {
	limiter := rl.getLimiter(source, requestsPerMinute)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-limiter.tokens:
		return nil
	}
}

func (rl *RateLimiter) getLimiter(source string, requestsPerMinute int) *sourceLimiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[source]
	rl.mu.RUnlock()

	if exists && limiter.limit == requestsPerMinute {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[source]; exists && limiter.limit == requestsPerMinute {
		return limiter
	}
	if limiter, exists := rl.limiters[source]; exists {
		limiter.refill.Stop()
	}

	tokens := make(chan struct{}, requestsPerMinute)
	for i := 0; i < requestsPerMinute; i++ {
		tokens <- struct{}{}
	}

	limiter = &sourceLimiter{
		tokens: tokens,
		refill: time.NewTicker(time.Minute / time.Duration(requestsPerMinute)),
		limit:  requestsPerMinute,
	}
	go limiter.startRefill()

	rl.limiters[source] = limiter
	return limiter
}

func (sl *sourceLimiter) startRefill() {
	for range sl.refill.C {
		select {
		case sl.tokens <- struct{}{}:
		default:
			// bucket full, skip this refill
		}
	}
}

// Stop stops all per-source refill tickers.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, limiter := range rl.limiters {
		limiter.refill.Stop()
	}
}
