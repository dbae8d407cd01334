package middleware

import (
	"net/http"
	"sync"
	"time"
)

// ipLimiter tracks a refill-on-access token bucket per client IP. It sits in
// front of the whole API; the dialog layer applies its own tighter
// per-conversation window on top.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	perSec  float64
	burst   float64
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

const clientIdleEviction = 10 * time.Minute

func newIPLimiter(perSec float64, burst int) *ipLimiter {
	return &ipLimiter{
		clients: make(map[string]*clientBucket),
		perSec:  perSec,
		burst:   float64(burst),
	}
}

// allow refills the client's bucket for the elapsed time and spends one
// token. Stale clients encountered along the way are evicted opportunistically
// so the map stays bounded without a background goroutine.
func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[ip]
	if !ok {
		b = &clientBucket{tokens: l.burst, seen: now}
		l.clients[ip] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * l.perSec
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.seen = now

	if len(l.clients) > 1 {
		l.evictStale(now)
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *ipLimiter) evictStale(now time.Time) {
	cutoff := now.Add(-clientIdleEviction)
	for ip, b := range l.clients {
		if b.seen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// RateLimit rejects requests above perSec sustained (burst tolerated) per
// client IP with 429 Too Many Requests.
func RateLimit(perSec float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(perSec, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// chi's RealIP middleware rewrites RemoteAddr from the
			// forwarding headers; X-Real-Ip is a direct fallback.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.allow(ip, time.Now()) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
