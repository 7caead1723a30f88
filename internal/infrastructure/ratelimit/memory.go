// Package ratelimit holds the in-process ports.RateLimiter used when no Redis
// is configured. Counters are per replica.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/folio/portfolio-api/internal/core/ports"
)

const defaultMaxKeys = 10000

var ErrCapacity = errors.New("rate limiter capacity exceeded")

type window struct {
	count int
	end   time.Time
}

// MemoryLimiter counts hits per key in fixed windows.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
	maxKeys int
}

// NewMemoryLimiter bounds the number of tracked keys; maxKeys <= 0 uses a default.
func NewMemoryLimiter(maxKeys int, now func() time.Time) *MemoryLimiter {
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{now: now, windows: make(map[string]*window), maxKeys: maxKeys}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, d time.Duration) (ports.RateLimitDecision, error) {
	if limit <= 0 {
		return ports.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.end) {
		if !ok && len(m.windows) >= m.maxKeys {
			m.sweep(now)
			if len(m.windows) >= m.maxKeys {
				return ports.RateLimitDecision{}, ErrCapacity
			}
		}
		w = &window{end: now.Add(d)}
		m.windows[key] = w
	}

	if w.count >= limit {
		return ports.RateLimitDecision{Allowed: false, Limit: limit, ResetAt: w.end}, nil
	}
	w.count++
	return ports.RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - w.count,
		ResetAt:   w.end,
	}, nil
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.end) {
			delete(m.windows, key)
		}
	}
}
