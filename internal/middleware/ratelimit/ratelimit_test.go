package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowsUnderLimit(t *testing.T) {
	l := New(3)
	defer l.Close()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("over-limit status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestLimiter_SeparateClients(t *testing.T) {
	l := New(1)
	defer l.Close()

	if !l.allow("10.0.0.1") {
		t.Error("first request from 10.0.0.1 denied")
	}
	if l.allow("10.0.0.1") {
		t.Error("second request from 10.0.0.1 allowed")
	}
	if !l.allow("10.0.0.2") {
		t.Error("first request from 10.0.0.2 denied")
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	l := New(1)
	defer l.Close()
	current := time.Unix(1000, 0)
	l.now = func() time.Time { return current }

	if !l.allow("10.0.0.1") {
		t.Fatal("first request denied")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("request inside window allowed")
	}

	current = current.Add(61 * time.Second)
	if !l.allow("10.0.0.1") {
		t.Error("request after window reset denied")
	}
}
