package middleware

import (
	"net"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// RateLimiter hands out a token bucket per client IP. The limiter runs ahead
// of authentication, so the address is the only caller key it has.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	ttl        time.Duration
	maxClients int
	limiters   *lru.Cache // ip -> *cachedLimiter
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithTTL sets how long a caller's bucket lives before it is replaced.
func WithTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) { rl.ttl = ttl }
}

// WithMaxClients bounds how many buckets are kept. The least recently seen
// address is dropped first.
func WithMaxClients(n int) RateLimiterOption {
	return func(rl *RateLimiter) { rl.maxClients = n }
}

// NewRateLimiter allows limit requests per second with the given burst.
// A non-positive limit disables limiting.
func NewRateLimiter(limit float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limit:      rate.Limit(limit),
		burst:      burst,
		ttl:        5 * time.Minute,
		maxClients: 10000,
	}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.maxClients <= 0 {
		rl.maxClients = 10000
	}
	// lru.New only fails for a non-positive size.
	rl.limiters, _ = lru.New(rl.maxClients)
	return rl
}

// Middleware rejects callers that exceed their bucket with 429.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.limit > 0 && !rl.get(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	now := time.Now()
	if v, ok := rl.limiters.Get(key); ok {
		cached := v.(*cachedLimiter)
		if now.Before(cached.expiresAt) {
			return cached.limiter
		}
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters.Add(key, &cachedLimiter{limiter: limiter, expiresAt: now.Add(rl.ttl)})
	return limiter
}

// Len reports how many client buckets are held.
func (rl *RateLimiter) Len() int {
	return rl.limiters.Len()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
