package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleClientTTL = 10 * time.Minute

// RateLimiter applies a token bucket per client address. The operator API is
// small and trusted, so this only guards against runaway scripts.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*client
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client with the given burst
// and evicts idle clients every cleanupInterval. Call Stop on shutdown.
func NewRateLimiter(perMinute, burst int, cleanupInterval time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	rl := &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		clients: make(map[string]*client),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit returns the rate limiting middleware.
func (rl *RateLimiter) Limit() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := rl.now()
			res := rl.limiterFor(clientKey(r), now).ReserveN(now, 1)
			if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
				res.CancelAt(now)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) > idleClientTTL {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(rl.now())
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(delay time.Duration) int {
	if delay <= 0 || delay == rate.InfDuration {
		return 1
	}
	return int(math.Ceil(delay.Seconds()))
}
