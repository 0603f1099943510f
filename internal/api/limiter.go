package api

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"citabot/internal/config"

	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL сколько живёт бакет клиента без запросов
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

// rateLimiter keeps one token bucket per client address. Buckets idle for
// longer than idleTTL are dropped on the next sweep.
type rateLimiter struct {
	limiters  sync.Map
	cfg       config.APIRateLimitConfig
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	l := &rateLimiter{
		cfg:     cfg,
		idleTTL: limiterIdleTTL,
		now:     time.Now,
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	now := l.now().UnixNano()
	if v, ok := l.limiters.Load(key); ok {
		if e, ok := v.(*limiterEntry); ok {
			e.lastSeen.Store(now)
			return e.limiter
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	e := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)}
	e.lastSeen.Store(now)
	actual, loaded := l.limiters.LoadOrStore(key, e)
	if loaded {
		if actualEntry, ok := actual.(*limiterEntry); ok {
			actualEntry.lastSeen.Store(now)
			return actualEntry.limiter
		}
	}
	return e.limiter
}

// sweep drops idle buckets, at most once per limiterSweepEvery.
func (l *rateLimiter) sweep() {
	now := l.now()
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(limiterSweepEvery) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	cutoff := now.Add(-l.idleTTL).UnixNano()
	l.limiters.Range(func(key, v any) bool {
		if e, ok := v.(*limiterEntry); ok && e.lastSeen.Load() < cutoff {
			l.limiters.CompareAndDelete(key, v)
		}
		return true
	})
}

// size counts live buckets.
func (l *rateLimiter) size() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (l *rateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.cfg.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		l.sweep()
		if !l.getLimiter(clientKey(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
