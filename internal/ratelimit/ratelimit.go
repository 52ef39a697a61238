// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ratelimit provides sliding-window request limiters keyed by bucket and client.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Bucket names used by the HTTP routes.
const (
	BucketVerify = "verify"
	BucketSend   = "send"
)

var errBucketKey = errors.New("bucket and key required")

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limits maps bucket names to their limit. The "default" entry applies to
// buckets without their own entry.
type Limits map[string]Limit

// Limiter decides whether a request identified by key may proceed in bucket.
type Limiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}

// PerMinute builds the limits for the verify and send buckets.
func PerMinute(verify, send int) Limits {
	return Limits{
		BucketVerify: {Limit: verify, Window: time.Minute},
		BucketSend:   {Limit: send, Window: time.Minute},
	}
}

func (l Limits) get(bucket string) Limit {
	if v, ok := l[bucket]; ok {
		return v
	}
	if v, ok := l["default"]; ok {
		return v
	}
	return Limit{Limit: 100, Window: time.Minute}
}

func limitKey(bucket, key string) string {
	return "ratelimit:" + bucket + ":" + key
}
