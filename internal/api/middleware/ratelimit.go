package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ComputeRateLimiter provides IP-based rate limiting for the resolution
// endpoints. Every resolve or preview call can fan out to external
// platform APIs, so unthrottled clients burn shared quota.
type ComputeRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

// NewComputeRateLimiter creates a rate limiter whose stale-entry
// cleanup goroutine runs until ctx is cancelled.
func NewComputeRateLimiter(ctx context.Context) *ComputeRateLimiter {
	if ctx == nil {
		ctx = context.Background()
	}
	rl := &ComputeRateLimiter{
		limiters: make(map[string]*ipLimiter),
	}
	go rl.cleanup(ctx)
	return rl
}

// Middleware returns an HTTP middleware that rate-limits requests by client IP.
// Allows 10 requests per minute with a burst of 10.
func (rl *ComputeRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.getLimiter(clientIP(r))
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *ComputeRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[ip]
	if !exists {
		// 10 requests per minute (1 every 6 seconds) with burst of 10
		entry = &ipLimiter{
			limiter: rate.NewLimiter(rate.Every(6*time.Second), 10),
		}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *ComputeRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, entry := range rl.limiters {
				if time.Since(entry.lastSeen) > 15*time.Minute {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// clientIP determines the client address for rate-limiting purposes.
// Forwarding headers are only honored when the direct peer is a private
// address (a reverse proxy we deployed); a public peer could spoof them
// to dodge the limiter.
func clientIP(r *http.Request) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if !isPrivateIP(remoteIP) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Rightmost entry is the one our own proxy appended.
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[len(parts)-1])
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return remoteIP
}

func isPrivateIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
