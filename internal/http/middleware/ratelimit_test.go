package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPLimiterExhaustsBurst(t *testing.T) {
	l := newIPLimiter(1, 3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1", now) {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}
	if l.allow("10.0.0.1", now) {
		t.Fatalf("fourth request should exceed burst")
	}
	// other clients keep their own bucket
	if !l.allow("10.0.0.2", now) {
		t.Fatalf("different ip should not share the bucket")
	}
}

func TestIPLimiterRefillsOverTime(t *testing.T) {
	l := newIPLimiter(2, 2)
	now := time.Now()

	l.allow("10.0.0.1", now)
	l.allow("10.0.0.1", now)
	if l.allow("10.0.0.1", now) {
		t.Fatalf("bucket should be empty")
	}
	if !l.allow("10.0.0.1", now.Add(time.Second)) {
		t.Fatalf("bucket should refill after a second")
	}
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Now()

	l.allow("10.0.0.1", now)
	l.allow("10.0.0.2", now.Add(clientIdleEviction+time.Minute))

	l.mu.Lock()
	_, stale := l.clients["10.0.0.1"]
	l.mu.Unlock()
	if stale {
		t.Fatalf("idle client should have been evicted")
	}
}

func TestRateLimitMiddlewareRejectsWith429(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RateLimit(0.0001, 1)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.9")

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
}
