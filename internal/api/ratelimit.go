// Rate limiting for the snapshot endpoints. Save and load each hit the
// snapshot directory on disk, so every client gets a token bucket: a full
// burst up front, refilled steadily rather than reset per window.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter tracks a refilling token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	burst   float64       // Bucket capacity and refill amount per period
	period  time.Duration // Time to refill an empty bucket completely
}

type tokenBucket struct {
	tokens float64
	last   time.Time // When tokens was last brought current
}

// NewRateLimiter builds a limiter allowing burst requests at once,
// replenished at burst-per-period.
func NewRateLimiter(burst int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*tokenBucket),
		burst:   float64(burst),
		period:  period,
	}
	go rl.evictLoop()
	return rl
}

// Allow takes one token for the client, reporting whether one was available.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.bucket(client)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns whole seconds until the client has a token again.
func (rl *RateLimiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.bucket(client)
	if b.tokens >= 1 {
		return 0
	}
	wait := (1 - b.tokens) * rl.period.Seconds() / rl.burst
	return int(wait) + 1
}

// bucket returns the client's bucket with refill applied. Caller holds mu.
func (rl *RateLimiter) bucket(client string) *tokenBucket {
	now := time.Now()
	b, ok := rl.clients[client]
	if !ok {
		b = &tokenBucket{tokens: rl.burst, last: now}
		rl.clients[client] = b
		return b
	}

	b.tokens += now.Sub(b.last).Seconds() / rl.period.Seconds() * rl.burst
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.last = now
	return b
}

// evictLoop drops buckets idle long enough to have refilled fully; they are
// indistinguishable from fresh ones.
func (rl *RateLimiter) evictLoop() {
	for {
		time.Sleep(time.Hour)

		rl.mu.Lock()
		cutoff := time.Now().Add(-2 * rl.period)
		for client, b := range rl.clients {
			if b.last.Before(cutoff) {
				delete(rl.clients, client)
			}
		}
		rl.mu.Unlock()
	}
}

// clientKey identifies the requester: the first X-Forwarded-For hop when a
// proxy set one, otherwise the peer address without its port.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects requests over the client's budget with 429 and
// a Retry-After hint.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(key)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
