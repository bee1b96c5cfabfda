/*
middleware.go - Authentication and rate limiting middleware

PURPOSE:
  RequireAuth verifies the bearer token on protected routes and resolves
  the caller's owner identity into the request context; handlers read it
  back with OwnerFromContext and never touch credentials.

  RateLimit applies a per-client token bucket (x/time/rate) keyed by
  remote host, with idle entries evicted periodically so the map does not
  grow without bound.
*/
package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/leave"
)

type contextKey string

const ownerKey contextKey = "owner"

// OwnerFromContext returns the authenticated owner identity, if any.
func OwnerFromContext(ctx context.Context) (leave.OwnerID, bool) {
	owner, ok := ctx.Value(ownerKey).(leave.OwnerID)
	return owner, ok
}

// RequireAuth verifies the Authorization bearer token and stores the owner
// identity in the request context.
func RequireAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}

			owner, err := tokens.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// =============================================================================
// RATE LIMITER - Per-client token buckets with idle cleanup
// =============================================================================

type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	lastGC  time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
		lastGC:  time.Now(),
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastGC) > rl.idleTTL {
		for k, e := range rl.entries {
			if now.Sub(e.lastSeen) > rl.idleTTL {
				delete(rl.entries, k)
			}
		}
		rl.lastGC = now
	}

	e, ok := rl.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.entries[key] = e
	}
	e.lastSeen = now
	return e.lim.Allow()
}

// Middleware rejects over-limit clients with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
