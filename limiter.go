package spacetraveling

import (
	"sync"
	"time"
)

// RequestLimiter limits requests per client IP within a sliding window.
type RequestLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	stop   chan struct{}
	once   sync.Once
}

// NewRequestLimiter creates a RequestLimiter that allows max requests per window.
func NewRequestLimiter(max int, window time.Duration) *RequestLimiter {
	l := &RequestLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		stop:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *RequestLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, hits := range l.hits {
			kept := prune(hits, cutoff)
			if len(kept) == 0 {
				delete(l.hits, ip)
			} else {
				l.hits[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

// Stop ends the background cleanup. It is safe to call more than once.
func (l *RequestLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Allow reports whether ip is under the limit and records the request.
func (l *RequestLimiter) Allow(ip string) bool {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.hits[ip], cutoff)
	if len(kept) >= l.max {
		l.hits[ip] = kept
		return false
	}
	l.hits[ip] = append(kept, time.Now())
	return true
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
