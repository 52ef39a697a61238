// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(limits Limits) (*MemoryLimiter, *time.Time) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemory(limits)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiter_Allow(t *testing.T) {
	l, _ := newTestMemory(PerMinute(3, 1))
	ctx := context.Background()

	for i := range 3 {
		ok, err := l.Allow(ctx, BucketVerify, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := l.Allow(ctx, BucketVerify, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter_KeysAndBucketsAreIndependent(t *testing.T) {
	l, _ := newTestMemory(PerMinute(1, 1))
	ctx := context.Background()

	ok, _ := l.Allow(ctx, BucketVerify, "10.0.0.1")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, BucketVerify, "10.0.0.2")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, BucketSend, "10.0.0.1")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, BucketVerify, "10.0.0.1")
	assert.False(t, ok)
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	l, now := newTestMemory(PerMinute(2, 1))
	ctx := context.Background()

	ok, _ := l.Allow(ctx, BucketVerify, "ip")
	assert.True(t, ok)

	*now = now.Add(30 * time.Second)
	ok, _ = l.Allow(ctx, BucketVerify, "ip")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, BucketVerify, "ip")
	assert.False(t, ok)

	// First hit leaves the window.
	*now = now.Add(31 * time.Second)
	ok, _ = l.Allow(ctx, BucketVerify, "ip")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, BucketVerify, "ip")
	assert.False(t, ok)
}

func TestMemoryLimiter_DeniedAttemptsNotRecorded(t *testing.T) {
	l, now := newTestMemory(PerMinute(1, 1))
	ctx := context.Background()

	ok, _ := l.Allow(ctx, BucketSend, "ip")
	assert.True(t, ok)

	for range 5 {
		*now = now.Add(10 * time.Second)
		ok, _ = l.Allow(ctx, BucketSend, "ip")
		assert.False(t, ok)
	}

	*now = now.Add(11 * time.Second)
	ok, _ = l.Allow(ctx, BucketSend, "ip")
	assert.True(t, ok)
}

func TestMemoryLimiter_DropsIdleBuckets(t *testing.T) {
	l, now := newTestMemory(Limits{"default": {Limit: 0, Window: time.Minute}})

	ok, err := l.Allow(context.Background(), "other", "ip")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, l.buckets)

	l.limits = PerMinute(5, 5)
	_, _ = l.Allow(context.Background(), BucketVerify, "ip")
	assert.Len(t, l.buckets, 1)

	*now = now.Add(2 * time.Minute)
	l.limits = PerMinute(0, 0)
	_, _ = l.Allow(context.Background(), BucketVerify, "ip")
	assert.Empty(t, l.buckets)
}

func TestMemoryLimiter_RequiresBucketAndKey(t *testing.T) {
	l := NewMemory(nil)

	_, err := l.Allow(context.Background(), "", "ip")
	require.Error(t, err)

	_, err = l.Allow(context.Background(), BucketVerify, "")
	require.Error(t, err)
}

func TestMemoryLimiter_NilAllows(t *testing.T) {
	var l *MemoryLimiter

	ok, err := l.Allow(context.Background(), BucketVerify, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimits_Fallbacks(t *testing.T) {
	assert.Equal(t, Limit{Limit: 100, Window: time.Minute}, Limits(nil).get("anything"))

	l := Limits{"default": {Limit: 7, Window: time.Second}}
	assert.Equal(t, 7, l.get(BucketSend).Limit)

	assert.Equal(t, 3, PerMinute(3, 4).get(BucketVerify).Limit)
	assert.Equal(t, 4, PerMinute(3, 4).get(BucketSend).Limit)
}

func TestNewRedisFromURL(t *testing.T) {
	l, err := NewRedisFromURL("redis://localhost:6379/2", PerMinute(1, 1))
	require.NoError(t, err)
	assert.NotNil(t, l)
	require.NoError(t, l.Close())

	_, err = NewRedisFromURL("http://not-redis", PerMinute(1, 1))
	assert.Error(t, err)
}

func TestRedisLimiter_NilAllows(t *testing.T) {
	var l *RedisLimiter

	ok, err := l.Allow(context.Background(), BucketVerify, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiter_EvictsKeysNeverSeenAgain(t *testing.T) {
	l, now := newTestMemory(PerMinute(10, 5))
	ctx := context.Background()

	for i := range 10000 {
		ok, err := l.Allow(ctx, BucketVerify, fmt.Sprintf("198.51.100.%d", i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Len(t, l.buckets, 10000)

	*now = now.Add(time.Hour)
	ok, err := l.Allow(ctx, BucketVerify, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, l.buckets, 1)
}

func TestMemoryLimiter_SweepKeepsActiveKeys(t *testing.T) {
	l, now := newTestMemory(PerMinute(1, 1))
	ctx := context.Background()
	start := *now

	ok, _ := l.Allow(ctx, BucketVerify, "a")
	assert.True(t, ok)

	*now = start.Add(30 * time.Second)
	ok, _ = l.Allow(ctx, BucketVerify, "b")
	assert.True(t, ok)

	// "a" has left its window, "b" has not.
	*now = start.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, BucketVerify, "c")
	assert.True(t, ok)
	assert.Len(t, l.buckets, 2)
	assert.NotContains(t, l.buckets, limitKey(BucketVerify, "a"))

	ok, _ = l.Allow(ctx, BucketVerify, "b")
	assert.False(t, ok)
}

func TestMemoryLimiter_SweepIsThrottled(t *testing.T) {
	l, now := newTestMemory(Limits{"default": {Limit: 5, Window: time.Second}})
	ctx := context.Background()
	start := *now

	_, _ = l.Allow(ctx, "short", "a")

	// Idle after one second, but the next sweep is not due yet.
	*now = start.Add(10 * time.Second)
	_, _ = l.Allow(ctx, "short", "b")
	assert.Len(t, l.buckets, 2)

	*now = start.Add(sweepInterval)
	_, _ = l.Allow(ctx, "short", "c")
	assert.Len(t, l.buckets, 1)
}
