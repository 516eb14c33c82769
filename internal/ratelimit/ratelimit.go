// Package ratelimit implements a fixed-window per-IP request limiter. The
// counter table sits behind CounterStore so the in-process implementation can
// be swapped for a shared store without touching route logic.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Hour

	// Message is sent verbatim on every rejection.
	Message = "Too many requests from this IP, please try again after 15 minutes"
)

// CounterStore records hits per key within the current fixed window.
type CounterStore interface {
	// Increment registers a hit for key at time now and returns the hit
	// count in the key's current window plus when that window resets.
	Increment(key string, now time.Time) (count int, resets time.Time)
}

type window struct {
	count int
	start time.Time
}

// MemoryStore keeps window state in process memory. A restart clears all
// counters.
type MemoryStore struct {
	mu      sync.Mutex
	size    time.Duration
	windows map[string]*window
}

func NewMemoryStore(windowSize time.Duration) *MemoryStore {
	return &MemoryStore{
		size:    windowSize,
		windows: make(map[string]*window),
	}
}

func (s *MemoryStore) Increment(key string, now time.Time) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= s.size {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.start.Add(s.size)
}

type Limiter struct {
	store CounterStore
	limit int
}

func New(store CounterStore, limit int) *Limiter {
	return &Limiter{store: store, limit: limit}
}

// Handler is the middleware. Every response carries the standard draft
// RateLimit-* headers; the legacy X-RateLimit-* family is not emitted.
// Rejected requests do not reset the window.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		count, resets := l.store.Increment(clientIP(r), now)

		remaining := l.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(int(resets.Sub(now).Seconds())))

		if count > l.limit {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": Message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
