package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/types"
	goCache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// minIdleTTL is the shortest time an unused bucket is kept
const minIdleTTL = time.Minute

// RateLimiter keeps one token bucket per caller, keyed by user id or client IP.
// Buckets nobody touched for the idle TTL are evicted.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *goCache.Cache
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perSecond requests per caller with bursts up to burst
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return newRateLimiter(perSecond, burst, refillTime(perSecond, burst))
}

func newRateLimiter(perSecond float64, burst int, idleTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: goCache.New(idleTTL, idleTTL),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// refillTime is how long an idle bucket takes to fill up again. Past that
// point a fresh bucket behaves the same, so the old one can go.
func refillTime(perSecond float64, burst int) time.Duration {
	if perSecond <= 0 {
		return minIdleTTL
	}
	ttl := time.Duration(float64(burst) / perSecond * float64(time.Second))
	if ttl < minIdleTTL {
		return minIdleTTL
	}
	return ttl
}

func (r *RateLimiter) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.limiters.Get(key); ok {
		l := v.(*rate.Limiter)
		// touching the entry slides its expiry
		r.limiters.SetDefault(key, l)
		return l
	}

	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters.SetDefault(key, l)
	return l
}

// Middleware rejects callers over their budget with 429. A non-positive rate disables limiting.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.limit <= 0 {
			c.Next()
			return
		}

		key := types.GetUserID(c.Request.Context())
		if key == "" {
			key = c.ClientIP()
		}

		if !r.get(key).Allow() {
			AbortWithError(c, ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, please retry shortly").
				Mark(ierr.ErrTooManyRequests))
			return
		}
		c.Next()
	}
}
