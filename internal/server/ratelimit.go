package server

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter is a per-user token bucket. Idle buckets are dropped on the
// next call after staleAfter.
type userLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newUserLimiter allows perMinute requests per user per minute, with bursts of
// the same size.
func newUserLimiter(perMinute int) *userLimiter {
	return &userLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      perMinute,
		staleAfter: 10 * time.Minute,
		now:        time.Now,
	}
}

func (l *userLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.staleAfter {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// limitPerUser rejects requests beyond the caller's budget with 429. It runs
// after requireUser.
func limitPerUser(l *userLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(currentUser(r).UserID) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "Too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
