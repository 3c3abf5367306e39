package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wolfman30/clinic-portal/internal/session"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	ok, wait := rl.Reserve("a")
	if ok {
		t.Fatal("expected third request to be limited")
	}
	if wait <= 0 || wait > time.Second {
		t.Fatalf("expected wait within one second, got %s", wait)
	}
	if !rl.Allow("b") {
		t.Fatal("keys must not share buckets")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Fatal("expected token to refill after one second")
	}
}

func TestRateLimiterZeroRateIsUnlimited(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	for i := 0; i < 50; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d limited", i)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	fixed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	handler := RateLimit(rl)(okHandler(nil))

	newReq := func(userID string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if userID != "" {
			req = req.WithContext(session.WithUser(req.Context(), session.User{ID: userID, Role: session.RoleNurse}))
		}
		return req
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq(""))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq("n-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("signed-in user should have its own bucket, got %d", rec.Code)
	}
}
