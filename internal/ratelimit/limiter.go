// Package ratelimit provides a fixed-window request limiter keyed by
// (action, participant). It is an explicit injectable service rather than a
// package global so tests can drive the clock and deployments can swap in a
// shared backing store later.
package ratelimit

import (
	"sync"
	"time"
)

type key struct {
	action      string
	participant string
}

type window struct {
	start time.Time
	count int
}

type Limiter struct {
	mu       sync.Mutex
	windows  map[key]*window
	size     time.Duration
	quotas   map[string]int // per action kind
	fallback int

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// New builds a limiter with one fixed window of the given size. quotas maps
// action kinds to their per-window cap; actions not listed use fallback.
func New(size time.Duration, quotas map[string]int, fallback int) *Limiter {
	l := &Limiter{
		windows:  make(map[key]*window),
		size:     size,
		quotas:   quotas,
		fallback: fallback,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow records one request and reports whether it fits in the current
// window. When denied, retryAfter is how long the caller should back off.
func (l *Limiter) Allow(action, participantID string) (ok bool, retryAfter time.Duration) {
	quota, found := l.quotas[action]
	if !found {
		quota = l.fallback
	}
	if quota <= 0 {
		return true, 0
	}

	now := l.now()
	k := key{action: action, participant: participantID}

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[k]
	if w == nil || now.Sub(w.start) >= l.size {
		l.windows[k] = &window{start: now, count: 1}
		return true, 0
	}
	if w.count >= quota {
		return false, w.start.Add(l.size).Sub(now)
	}
	w.count++
	return true, 0
}

// Stop ends the background sweep.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.size)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops windows that have expired so the table does not grow with
// every participant ever seen.
func (l *Limiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, w := range l.windows {
		if now.Sub(w.start) >= l.size {
			delete(l.windows, k)
		}
	}
}
