package ratelimit

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLimiter_AllowWithinWindow(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request should be denied")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining: got %d, want 0", got)
	}
	if !l.Allow("b") {
		t.Error("other keys have their own window")
	}

	now = now.Add(time.Minute + time.Second)
	if !l.Allow("a") {
		t.Error("request after window expiry should be allowed")
	}
	if got := l.Remaining("a"); got != 1 {
		t.Errorf("Remaining after expiry: got %d, want 1", got)
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected limit reached")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("expected allow after Reset")
	}
	l.Stop()
	l.Stop()
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Errorf("RemoteAddr: got %q", got)
	}
	r.Header.Set("X-Real-IP", "10.0.0.2")
	if got := ClientIP(r); got != "10.0.0.2" {
		t.Errorf("X-Real-IP: got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	if got := ClientIP(r); got != "10.0.0.3" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}

func TestJoinLimiter(t *testing.T) {
	j := NewJoinLimiter(2, time.Minute)
	defer j.Stop()

	user := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/teams/join", nil)

	for i := 0; i < 2; i++ {
		if err := j.Check(r, user); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if err := j.Check(r, user); !errors.Is(err, apperr.ErrTooMany) {
		t.Errorf("third attempt: expected ErrTooMany, got %v", err)
	}

	j.Succeeded(user)
	if err := j.Check(r, user); err != nil {
		t.Errorf("after success: %v", err)
	}

	// Same IP, other users: the IP allowance is 3x the per-user one.
	for i := 0; i < 2; i++ {
		_ = j.Check(r, primitive.NewObjectID())
	}
	if err := j.Check(r, primitive.NewObjectID()); !errors.Is(err, apperr.ErrTooMany) {
		t.Errorf("ip limit: expected ErrTooMany, got %v", err)
	}
}

func TestJoinLimiter_Disabled(t *testing.T) {
	j := NewJoinLimiter(0, time.Minute)
	if j != nil {
		t.Fatal("expected nil limiter when disabled")
	}
	r := httptest.NewRequest("POST", "/teams/join", nil)
	for i := 0; i < 10; i++ {
		if err := j.Check(r, primitive.NewObjectID()); err != nil {
			t.Fatalf("disabled limiter denied: %v", err)
		}
	}
	j.Succeeded(primitive.NewObjectID())
	j.Stop()
}
