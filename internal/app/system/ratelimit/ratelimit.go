// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Limiter counts requests per key in fixed windows. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
// Expired windows are dropped every 2*duration until Stop is called.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records one request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if n := l.limit - w.count; n > 0 {
		return n
	}
	return 0
}

// Reset forgets key's window.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP, preferring X-Forwarded-For and X-Real-IP
// over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// JoinLimiter throttles join-code attempts per user and per client IP, so a
// join code cannot be found by guessing.
type JoinLimiter struct {
	user *Limiter
	ip   *Limiter
}

// NewJoinLimiter allows perUser attempts per user and 3*perUser per IP each
// window. perUser <= 0 disables limiting and returns nil; a nil JoinLimiter
// admits everything.
func NewJoinLimiter(perUser int, window time.Duration) *JoinLimiter {
	if perUser <= 0 {
		return nil
	}
	return &JoinLimiter{
		user: New(perUser, window),
		ip:   New(perUser*3, window),
	}
}

// Check records an attempt and returns apperr.ErrTooMany once either limit is spent.
func (j *JoinLimiter) Check(r *http.Request, userID primitive.ObjectID) error {
	if j == nil {
		return nil
	}
	if !j.ip.Allow(ClientIP(r)) || !j.user.Allow(userID.Hex()) {
		return apperr.ErrTooMany
	}
	return nil
}

// Succeeded clears the user's count after a successful join.
func (j *JoinLimiter) Succeeded(userID primitive.ObjectID) {
	if j == nil {
		return
	}
	j.user.Reset(userID.Hex())
}

// Stop releases both limiters' cleanup goroutines.
func (j *JoinLimiter) Stop() {
	if j == nil {
		return
	}
	j.user.Stop()
	j.ip.Stop()
}
