package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key (a client IP, a chat ID, ...).
type Limiter struct {
	limiters       map[string]*limiterEntry
	mu             sync.Mutex
	rate           rate.Limit
	burst          int
	cleanup        time.Duration
	maxEntries     int
	trustedProxies []*net.IPNet
	now            func() time.Time
	done           chan struct{}
	closeOnce      sync.Once
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// New creates a keyed limiter.
// r: events per second per key
// b: maximum burst per key
// cleanup: how often idle keys are dropped
// trustedProxies: CIDR ranges or IPs of reverse proxies whose forwarding
// headers are honored by Middleware (empty = trust all)
func New(r rate.Limit, b int, cleanup time.Duration, trustedProxies []string) *Limiter {
	l := &Limiter{
		limiters:   make(map[string]*limiterEntry),
		rate:       r,
		burst:      b,
		cleanup:    cleanup,
		maxEntries: 10000,
		now:        time.Now,
		done:       make(chan struct{}),
	}

	for _, cidr := range trustedProxies {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			if ip := net.ParseIP(cidr); ip != nil {
				if ip.To4() != nil {
					_, ipnet, _ = net.ParseCIDR(cidr + "/32")
				} else {
					_, ipnet, _ = net.ParseCIDR(cidr + "/128")
				}
			}
		}
		if ipnet != nil {
			l.trustedProxies = append(l.trustedProxies, ipnet)
		}
	}

	go l.cleanupStale()

	return l
}

// Allow reports whether an event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).AllowN(l.now(), 1)
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.limiters[key]
	if !exists {
		if len(l.limiters) >= l.maxEntries {
			l.evictOldest()
		}

		entry = &limiterEntry{
			limiter:    rate.NewLimiter(l.rate, l.burst),
			lastAccess: l.now(),
		}
		l.limiters[key] = entry
	} else {
		entry.lastAccess = l.now()
	}

	return entry.limiter
}

func (l *Limiter) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range l.limiters {
		if oldestKey == "" || entry.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccess
		}
	}

	if oldestKey != "" {
		delete(l.limiters, oldestKey)
	}
}

func (l *Limiter) cleanupStale() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.dropIdle()
		}
	}
}

// dropIdle removes keys idle for more than twice the cleanup interval.
func (l *Limiter) dropIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cleanup * 2)
	for key, entry := range l.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

// Middleware limits HTTP requests per client IP.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(l.getClientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) getClientIP(r *http.Request) string {
	remoteIP := parseIP(r.RemoteAddr)

	if len(l.trustedProxies) > 0 {
		trusted := false
		for _, ipnet := range l.trustedProxies {
			if remoteIP != nil && ipnet.Contains(remoteIP) {
				trusted = true
				break
			}
		}

		if !trusted {
			return remoteIP.String()
		}
	}

	// Leftmost X-Forwarded-For entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
		if parsed := net.ParseIP(clientIP); parsed != nil {
			return parsed.String()
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if parsed := net.ParseIP(xri); parsed != nil {
			return parsed.String()
		}
	}

	return remoteIP.String()
}

func parseIP(addr string) net.IP {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
