// internal/app/system/ratelimit/ratelimit_test.go
package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowAndRemaining(t *testing.T) {
	l := &Limiter{windows: make(map[string]*window), limit: 3, span: time.Minute, now: time.Now}

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("a") {
		t.Error("fourth request should be limited")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}

	// Keys are independent.
	if !l.Allow("b") {
		t.Error("fresh key should be allowed")
	}
	if got := l.Remaining("b"); got != 2 {
		t.Errorf("Remaining(b) = %d, want 2", got)
	}
}

func TestWindowExpiry(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &Limiter{windows: make(map[string]*window), limit: 1, span: time.Minute, now: func() time.Time { return base }}

	if !l.Allow("a") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("second request in the window should be limited")
	}

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if !l.Allow("a") {
		t.Error("request after the window expires should be allowed")
	}
}

func TestReset(t *testing.T) {
	l := &Limiter{windows: make(map[string]*window), limit: 1, span: time.Minute, now: time.Now}

	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("limit not applied")
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("Reset should clear the window")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.7:4921"
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Errorf("RemoteAddr: got %q", got)
	}

	r.Header.Set("X-Real-IP", "203.0.113.5")
	if got := ClientIP(r); got != "203.0.113.5" {
		t.Errorf("X-Real-IP: got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.1")
	if got := ClientIP(r); got != "192.0.2.1" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}
