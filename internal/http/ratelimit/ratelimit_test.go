package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestLimiter(t *testing.T, r rate.Limit, b int, proxies []string) (*Limiter, *time.Time) {
	t.Helper()
	l := New(r, b, time.Hour, proxies)
	t.Cleanup(l.Close)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowPerKey(t *testing.T) {
	l, now := newTestLimiter(t, rate.Limit(1), 2, nil)

	if !l.Allow("chat:1") || !l.Allow("chat:1") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if l.Allow("chat:1") {
		t.Fatalf("expected third event to be limited")
	}
	if !l.Allow("chat:2") {
		t.Fatalf("expected other key to have its own bucket")
	}

	*now = now.Add(time.Second)
	if !l.Allow("chat:1") {
		t.Fatalf("expected token to refill after one second")
	}
}

func TestDropIdle(t *testing.T) {
	l, now := newTestLimiter(t, rate.Limit(1), 1, nil)
	l.Allow("a")
	*now = now.Add(3 * time.Hour)
	l.Allow("b")

	l.dropIdle()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.limiters["a"]; ok {
		t.Errorf("expected idle key to be dropped")
	}
	if _, ok := l.limiters["b"]; !ok {
		t.Errorf("expected recent key to be kept")
	}
}

func TestEvictOldestAtCapacity(t *testing.T) {
	l, now := newTestLimiter(t, rate.Limit(1), 1, nil)
	l.maxEntries = 3
	for i := 0; i < 3; i++ {
		l.Allow(strconv.Itoa(i))
		*now = now.Add(time.Second)
	}
	l.Allow("new")

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.limiters) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(l.limiters))
	}
	if _, ok := l.limiters["0"]; ok {
		t.Errorf("expected oldest key to be evicted")
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(t, rate.Limit(1), 1, nil)
	h := l.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.7:4000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		proxies    []string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"no proxies trusts forwarded", nil, "10.0.0.1:1234", "198.51.100.1, 10.0.0.1", "", "198.51.100.1"},
		{"real ip fallback", nil, "10.0.0.1:1234", "", "198.51.100.2", "198.51.100.2"},
		{"remote addr fallback", nil, "198.51.100.3:1234", "", "", "198.51.100.3"},
		{"trusted proxy", []string{"10.0.0.0/8"}, "10.1.2.3:1234", "198.51.100.4", "", "198.51.100.4"},
		{"trusted single ip", []string{"10.1.2.3"}, "10.1.2.3:1234", "198.51.100.5", "", "198.51.100.5"},
		{"untrusted proxy ignored", []string{"10.0.0.0/8"}, "203.0.113.9:1234", "198.51.100.6", "", "203.0.113.9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, _ := newTestLimiter(t, rate.Limit(1), 1, tc.proxies)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			if got := l.getClientIP(req); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
