// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Allow scans for idle keys.
const sweepInterval = time.Minute

// MemoryLimiter is an in-process sliding-window limiter for single-node deployments.
type MemoryLimiter struct {
	mu        sync.Mutex
	limits    Limits
	buckets   map[string]hits
	lastSweep time.Time
	now       func() time.Time
}

// hits are the recorded attempts for one key, oldest first.
type hits struct {
	at     []time.Time
	window time.Duration
}

// idle reports whether every attempt has left the window.
func (h hits) idle(now time.Time) bool {
	return len(h.at) == 0 || !h.at[len(h.at)-1].After(now.Add(-h.window))
}

// NewMemory creates an in-memory limiter.
func NewMemory(limits Limits) *MemoryLimiter {
	return &MemoryLimiter{
		limits:  limits,
		buckets: make(map[string]hits),
		now:     time.Now,
	}
}

// Allow records the attempt and reports whether it fits in the window.
// Denied attempts are not recorded.
func (l *MemoryLimiter) Allow(_ context.Context, bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, errBucketKey
	}

	lim := l.limits.get(bucket)
	now := l.now()
	windowStart := now.Add(-lim.Window)
	k := limitKey(bucket, key)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	ts := l.buckets[k].at
	i := 0
	for i < len(ts) && !ts[i].After(windowStart) {
		i++
	}
	ts = ts[i:]

	if len(ts) >= lim.Limit {
		l.store(k, hits{at: ts, window: lim.Window})
		return false, nil
	}

	l.store(k, hits{at: append(ts, now), window: lim.Window})
	return true, nil
}

// store keeps h for k, dropping empty buckets so idle clients do not accumulate.
func (l *MemoryLimiter) store(k string, h hits) {
	if len(h.at) == 0 {
		delete(l.buckets, k)
		return
	}
	l.buckets[k] = h
}

// sweep drops keys that have not been seen within their window. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for k, h := range l.buckets {
		if h.idle(now) {
			delete(l.buckets, k)
		}
	}
}
