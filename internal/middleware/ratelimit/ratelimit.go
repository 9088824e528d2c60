// Package ratelimit implements a per-client fixed-window rate limiter.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter limits each client IP to a number of requests per minute.
type Limiter struct {
	mu      sync.Mutex
	perMin  int
	clients map[string]*window
	now     func() time.Time
	stop    chan struct{}
}

// New creates a limiter allowing perMinute requests per client IP and starts
// a background sweep of stale windows.
func New(perMinute int) *Limiter {
	l := &Limiter{
		perMin:  perMinute,
		clients: make(map[string]*window),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the background sweep goroutine.
func (l *Limiter) Close() {
	close(l.stop)
}

func (l *Limiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win, ok := l.clients[ip]
	if !ok || now.After(win.resetAt) {
		l.clients[ip] = &window{count: 1, resetAt: now.Add(time.Minute)}
		return true
	}
	if win.count >= l.perMin {
		return false
	}
	win.count++
	return true
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for ip, win := range l.clients {
				if now.After(win.resetAt) {
					delete(l.clients, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
