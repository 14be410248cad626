package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate limits per platform (requests per second).
var defaultRateLimits = map[Platform]rate.Limit{
	PlatformYouTube:    5,
	PlatformSoundCloud: 5,
}

// RateLimiterMap holds one rate.Limiter per platform, created once at startup.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[Platform]*rate.Limiter
}

// NewRateLimiterMap creates all platform rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[Platform]*rate.Limiter, len(defaultRateLimits)),
	}
	for platform, limit := range defaultRateLimits {
		m.limiters[platform] = rate.NewLimiter(limit, 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given platform allows a request,
// or the context is canceled.
func (m *RateLimiterMap) Wait(ctx context.Context, platform Platform) error {
	m.mu.RLock()
	limiter, ok := m.limiters[platform]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
