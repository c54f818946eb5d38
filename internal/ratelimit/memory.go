package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

// Memory is a process-local Limiter. Counts are lost on restart and are not
// shared between replicas; use Redis when running more than one API process.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	checks  int
}

func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]*bucket), now: time.Now}
}

// WithClock swaps the time source, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok || !now.Before(b.until) {
		b = &bucket{until: now.Add(window)}
		m.buckets[key] = b
	}

	m.checks++
	if m.checks%1024 == 0 {
		m.evict(now)
	}

	if b.count >= limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: b.until}, nil
	}
	b.count++
	return Result{Allowed: true, Remaining: limit - b.count, ResetAt: b.until}, nil
}

func (m *Memory) evict(now time.Time) {
	for k, b := range m.buckets {
		if !now.Before(b.until) {
			delete(m.buckets, k)
		}
	}
}

var _ Limiter = (*Memory)(nil)
