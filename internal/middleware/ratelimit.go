package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/himtika/proposal-tracker/internal/config"
)

// RateLimiter applies a token bucket per client IP to the routes it wraps.
func RateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return next(c)
			}
		}
	}

	limiters := newIPLimiters(cfg, time.Now)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiters.get(c.RealIP()).Allow() {
				return deny(c, http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters keeps one bucket per client. A bucket idle for a whole interval
// has refilled, so dropping it changes nothing for that client.
type ipLimiters struct {
	mu         sync.Mutex
	entries    map[string]*ipLimiter
	perRequest time.Duration
	burst      int
	idleAfter  time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

func newIPLimiters(cfg config.RateLimitConfig, now func() time.Time) *ipLimiters {
	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}
	return &ipLimiters{
		entries:    make(map[string]*ipLimiter),
		perRequest: perRequest,
		burst:      cfg.Requests,
		idleAfter:  cfg.Interval,
		lastSweep:  now(),
		now:        now,
	}
}

func (l *ipLimiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleAfter {
		for k, entry := range l.entries {
			if now.Sub(entry.lastSeen) >= l.idleAfter {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(l.perRequest), l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}
