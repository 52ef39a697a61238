// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/config"
	"github.com/cp-church/angular-prayerapp-sub007/internal/database"
	"github.com/cp-church/angular-prayerapp-sub007/internal/ratelimit"
	"github.com/cp-church/angular-prayerapp-sub007/internal/repository"
	"github.com/cp-church/angular-prayerapp-sub007/internal/services/email"
	"github.com/cp-church/angular-prayerapp-sub007/internal/services/verification"
	"github.com/cp-church/angular-prayerapp-sub007/internal/supabase"
)

// OpenStore opens the configured verification code store. When the store is
// not configured it returns a nil store and no error, so requests fail with a
// configuration error instead of the process refusing to start.
func OpenStore(cfg *config.Config) (verification.Store, func(), error) {
	noop := func() {}

	if !cfg.Store.Configured() {
		slog.Error("verification store not configured", "driver", cfg.Store.Driver)
		return nil, noop, nil
	}

	switch cfg.Store.Driver {
	case config.StoreSupabase:
		client, err := supabase.NewClient(&cfg.Store, nil)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("using hosted store", "url", cfg.Store.SupabaseURL)
		return client, noop, nil

	default:
		db, err := database.Open(cfg.Store.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open database: %w", err)
		}
		closeDB := func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("failed to close database", "error", closeErr)
			}
		}
		return repository.New(db), closeDB, nil
	}
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when SMTP is
// not configured.
func NewMailer(cfg *config.Config) (verification.Mailer, error) {
	if !cfg.SMTP.Enabled() {
		slog.Warn("SMTP not configured, verification emails are logged only")
		return email.LogMailer{}, nil
	}
	svc, err := email.NewService(&cfg.SMTP)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// newLimiter returns the Redis limiter when configured and reachable, and the
// in-memory limiter otherwise.
func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func()) {
	limits := ratelimit.PerMinute(cfg.RateLimit.VerifyPerMin, cfg.RateLimit.SendPerMin)

	if cfg.RateLimit.RedisURL == "" {
		return ratelimit.NewMemory(limits), func() {}
	}

	rl, err := ratelimit.NewRedisFromURL(cfg.RateLimit.RedisURL, limits)
	if err != nil {
		slog.Warn("invalid redis url, using in-memory rate limiter", "error", err)
		return ratelimit.NewMemory(limits), func() {}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rl.Ping(pingCtx); err != nil {
		slog.Warn("redis unreachable, using in-memory rate limiter", "error", err)
		_ = rl.Close()
		return ratelimit.NewMemory(limits), func() {}
	}

	slog.Info("using redis rate limiter")
	return rl, func() { _ = rl.Close() }
}
