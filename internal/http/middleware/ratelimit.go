package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateKeyFunc maps a request to its bucket.
type RateKeyFunc func(*gin.Context) string

// KeyByAccountOrIP keys buckets by the caller account stored by Account,
// falling back to the client IP. The "account:" and "ip:" prefixes keep the
// two namespaces apart.
func KeyByAccountOrIP() RateKeyFunc {
	return func(c *gin.Context) string {
		if a := AccountFrom(c); a != "" {
			return "account:" + a
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	RPS   float64
	Burst int // <= 0 means 1
	Key   RateKeyFunc
	// Exempt requests are never limited. The router exempts oracle
	// responders so a fulfillment is never delayed behind client traffic.
	Exempt func(*gin.Context) bool
	// IdleTTL evicts buckets unused for this long. Default 10m.
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. It is safe for
// concurrent use and is not an authorization mechanism.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	key    RateKeyFunc
	exempt func(*gin.Context) bool

	mu        sync.Mutex
	buckets   map[string]*bucket
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns a limiter; install it with Handler.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Key == nil {
		opts.Key = KeyByAccountOrIP()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		rps:       rate.Limit(opts.RPS),
		burst:     opts.Burst,
		key:       opts.Key,
		exempt:    opts.Exempt,
		buckets:   make(map[string]*bucket),
		ttl:       opts.IdleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// limiter returns the bucket for key. At most once per TTL the idle buckets
// are swept first, so an expired bucket is replaced rather than refreshed.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.ttl {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}
	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator found a stored replay.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler limits every request that is neither a replay nor exempt. A
// refused request gets 429 with Retry-After in whole seconds until the
// bucket refills.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || (rl.exempt != nil && rl.exempt(c)) {
			c.Next()
			return
		}

		lim := rl.limiter(rl.key(c))
		now := rl.now()
		res := lim.ReserveN(now, 1)
		delay := res.DelayFrom(now)
		if res.OK() && delay == 0 {
			c.Next()
			return
		}
		res.CancelAt(now)

		c.Header("Retry-After", retryAfter(delay, res.OK()))
		abortJSON(c, http.StatusTooManyRequests, CodeTooManyRequests, "rate limit exceeded")
	}
}

// retryAfter rounds delay up to whole seconds, at least 1. A limiter that
// can never grant (rate 0) advertises 60.
func retryAfter(delay time.Duration, ok bool) string {
	if !ok || delay == rate.InfDuration {
		return "60"
	}
	secs := int(math.Ceil(delay.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
