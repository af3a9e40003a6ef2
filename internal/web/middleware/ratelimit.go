package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter allows each client address a steady number of requests per
// minute, with bursts up to the same number.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit
	burst    int
	idle     time.Duration
	lastTrim time.Time
	now      func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns a limiter allowing perMinute requests per address.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		idle:    3 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether addr may make another request now.
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.trim(now)

	c, ok := rl.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[addr] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// trim forgets clients not seen for a while, at most once a minute.
func (rl *RateLimiter) trim(now time.Time) {
	if now.Sub(rl.lastTrim) < time.Minute {
		return
	}
	rl.lastTrim = now
	for addr, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.idle {
			delete(rl.clients, addr)
		}
	}
}

// Handler rejects requests over the limit with 429. It keys on r.RemoteAddr,
// so TrustedRealIP must run first.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			retry := time.Duration(float64(time.Second) / float64(rl.limit))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retry.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate limit exceeded",
				"message": "Too many requests.",
				"action":  "Wait a moment and try again.",
				"code":    "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
