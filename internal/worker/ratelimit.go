package worker

import (
	"net/http"
	"sync"
	"time"
)

// tokenBucket is a single client's allowance.
type tokenBucket struct {
	last   time.Time
	tokens float64
}

// RateLimiter applies a token bucket per client key.
type RateLimiter struct {
	buckets     map[string]*tokenBucket
	now         func() time.Time
	lastCleanup time.Time
	rate        float64
	burst       float64
	maxIdle     time.Duration
	rejected    int64
	mu          sync.Mutex
}

// NewRateLimiter allows rate requests per second per client, with bursts up to burst.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:     make(map[string]*tokenBucket),
		now:         time.Now,
		lastCleanup: time.Now(),
		rate:        rate,
		burst:       float64(burst),
		maxIdle:     10 * time.Minute,
	}
}

// Allow reports whether a request from key may proceed, consuming a token if so.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) > rl.maxIdle {
		for k, b := range rl.buckets {
			if now.Sub(b.last) > rl.maxIdle {
				delete(rl.buckets, k)
			}
		}
		rl.lastCleanup = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &tokenBucket{last: now, tokens: rl.burst}
		rl.buckets[key] = b
	}
	b.tokens = min(rl.burst, b.tokens+now.Sub(b.last).Seconds()*rl.rate)
	b.last = now

	if b.tokens < 1 {
		rl.rejected++
		return false
	}
	b.tokens--
	return true
}

// Stats returns limiter statistics.
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return map[string]any{
		"rate":           rl.rate,
		"burst":          rl.burst,
		"active_clients": len(rl.buckets),
		"rejected":       rl.rejected,
	}
}

// RateLimitMiddleware rejects clients that exceed their allowance with 429.
// Clients are identified by X-Real-IP when set, otherwise RemoteAddr.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if ip := r.Header.Get("X-Real-IP"); ip != "" {
				key = ip
			}
			if !limiter.Allow(key) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
