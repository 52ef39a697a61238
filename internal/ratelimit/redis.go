// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a sliding-window limiter shared across instances, using one
// sorted set per bucket and client.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	limits Limits
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(rdb redis.UniversalClient, limits Limits) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limits: limits}
}

// NewRedisFromURL parses a redis:// URL and creates a limiter for it.
func NewRedisFromURL(url string, limits Limits) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opts), limits), nil
}

// Ping checks the connection to Redis.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}

// Allow records the attempt and reports whether it fits in the window.
func (l *RedisLimiter) Allow(ctx context.Context, bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, errBucketKey
	}

	lim := l.limits.get(bucket)
	now := time.Now().UnixMilli()
	start := now - lim.Window.Milliseconds()
	k := limitKey(bucket, key)
	// Unique member so concurrent hits in the same millisecond are all counted.
	member := strconv.FormatInt(now, 10) + ":" + uuid.NewString()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(start, 10))
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now), Member: member})
	countCmd := pipe.ZCard(ctx, k)
	pipe.Expire(ctx, k, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline: %w", err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return false, err
	}
	if count > int64(lim.Limit) {
		l.rdb.ZRem(ctx, k, member)
		return false, nil
	}
	return true, nil
}
