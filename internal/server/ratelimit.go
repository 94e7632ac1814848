package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

// rateLimiter keeps one token bucket per client IP. Idle buckets expire.
type rateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

// newRateLimiter allows rps requests per second per IP with the given burst. A
// non-positive rps disables limiting.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &rateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: cache.New(limiterIdle, 2*limiterIdle),
	}
}

func (r *rateLimiter) get(ip string) *rate.Limiter {
	if v, ok := r.limiters.Get(ip); ok {
		l := v.(*rate.Limiter)
		r.limiters.Set(ip, l, cache.DefaultExpiration)
		return l
	}
	l := rate.NewLimiter(r.limit, r.burst)
	if err := r.limiters.Add(ip, l, cache.DefaultExpiration); err != nil {
		// another request created it first
		if v, ok := r.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Handler rejects requests over the limit with 429.
func (r *rateLimiter) Handler(c *fiber.Ctx) error {
	if !r.get(c.IP()).Allow() {
		c.Set(fiber.HeaderRetryAfter, "1")
		return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
	}
	return c.Next()
}
