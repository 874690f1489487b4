package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleAfter = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP. Idle buckets are dropped
// on access once the table grows past maxVisitors.
type ipLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	maxVisitors int
	now         func() time.Time
}

func newIPLimiter(perMinute float64, now func() time.Time) *ipLimiter {
	burst := int(perMinute)
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		visitors:    make(map[string]*visitor),
		limit:       rate.Limit(perMinute / 60),
		burst:       burst,
		maxVisitors: 10000,
		now:         now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if len(l.visitors) >= l.maxVisitors {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleAfter {
				delete(l.visitors, key)
			}
		}
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many login attempts, try again in a minute")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
