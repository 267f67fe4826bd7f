package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(limit int, period time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(limit, period)
	l.now = clock.now
	return l, clock
}

func TestLimiterAllow(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow("key"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, wait := l.Allow("key")
	if ok {
		t.Error("4th request should be denied")
	}
	if wait != time.Minute {
		t.Errorf("wait = %v, want 1m", wait)
	}
	if ok, _ := l.Allow("other"); !ok {
		t.Error("keys must be independent")
	}
}

func TestLimiterWindowReset(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	l.Allow("key")
	if ok, _ := l.Allow("key"); ok {
		t.Fatal("should be blocked within window")
	}
	clock.t = clock.t.Add(time.Minute)
	if ok, _ := l.Allow("key"); !ok {
		t.Error("should be allowed after window expires")
	}
}

func TestLimiterCleanup(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)
	l.Allow("expired")
	clock.t = clock.t.Add(2 * time.Minute)
	l.Allow("active")

	l.Cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows["expired"]; ok {
		t.Error("expired window should have been cleaned up")
	}
	if _, ok := l.windows["active"]; !ok {
		t.Error("active window should remain")
	}
}

func TestLimitMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1, 30*time.Second)
	h := Limit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/jobs/refresh", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: status %d, want %d", i+1, rec.Code, want)
		}
		if want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "30" {
			t.Errorf("Retry-After = %q, want 30", rec.Header().Get("Retry-After"))
		}
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := RealIP(req); got != "192.0.2.1" {
		t.Errorf("RealIP = %q", got)
	}
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	if got := RealIP(req); got != "198.51.100.2" {
		t.Errorf("RealIP = %q", got)
	}
}
