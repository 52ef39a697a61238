// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification issues and redeems emailed one-time codes.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/models"
	"github.com/cp-church/angular-prayerapp-sub007/internal/repository"
	"github.com/cp-church/angular-prayerapp-sub007/internal/services/email"
	"github.com/google/uuid"
)

const (
	// DefaultCodeLength is used when Options.CodeLength is zero.
	DefaultCodeLength = 6
	// DefaultCodeTTL is used when Options.CodeTTL is zero.
	DefaultCodeTTL = 15 * time.Minute

	cleanupTimeout = 10 * time.Second
)

var (
	ErrMissingFields     = errors.New("missing required fields")
	ErrInvalidFormat     = errors.New("invalid code format")
	ErrNotFound          = errors.New("invalid verification code")
	ErrAlreadyUsed       = errors.New("code already used")
	ErrExpired           = errors.New("code expired")
	ErrNotConfigured     = errors.New("verification store not configured")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrMissingActionType = errors.New("missing action type")
)

// Store persists verification codes. Implemented by the SQL repository and
// the hosted-store REST client.
type Store interface {
	CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error
	FindVerificationCode(ctx context.Context, id, code string) (*models.VerificationCode, error)
	MarkVerificationCodeUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
	DeleteVerificationCode(ctx context.Context, id string) error
	DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// Mailer delivers a freshly issued code to its recipient.
type Mailer interface {
	SendVerificationCode(ctx context.Context, msg email.VerificationMessage) error
}

// Options tunes code generation. Zero values select the defaults.
type Options struct {
	CodeLength int
	CodeTTL    time.Duration
	Now        func() time.Time
}

// Service issues and redeems verification codes.
type Service struct {
	store  Store
	mailer Mailer
	length int
	ttl    time.Duration
	now    func() time.Time
	wg     sync.WaitGroup
}

// Redemption is what a successfully redeemed code authorizes.
type Redemption struct {
	ActionType string
	ActionData models.ActionData
	Email      string
}

// IssueRequest describes the action a new code should authorize.
type IssueRequest struct {
	Email      string
	ActionType string
	ActionData models.ActionData
}

// Issued identifies a code that was stored and sent.
type Issued struct {
	CodeID    string
	ExpiresAt time.Time
}

// NewService creates a verification service. A nil store yields a service
// whose operations fail with ErrNotConfigured.
func NewService(store Store, mailer Mailer, opts Options) *Service {
	if opts.CodeLength == 0 {
		opts.CodeLength = DefaultCodeLength
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = DefaultCodeTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:  store,
		mailer: mailer,
		length: opts.CodeLength,
		ttl:    opts.CodeTTL,
		now:    opts.Now,
	}
}

// Configured reports whether a store is attached.
func (s *Service) Configured() bool {
	return s.store != nil
}

// Ping checks the attached store.
func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return ErrNotConfigured
	}
	return s.store.Ping(ctx)
}

// Redeem validates codeID and code, consumes the matching code and returns
// the action it authorizes.
func (s *Service) Redeem(ctx context.Context, codeID, code string) (*Redemption, error) {
	if strings.TrimSpace(codeID) == "" || strings.TrimSpace(code) == "" {
		return nil, ErrMissingFields
	}
	if !ValidCode(code) {
		return nil, ErrInvalidFormat
	}
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	vc, err := s.store.FindVerificationCode(ctx, codeID, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up verification code: %w", err)
	}

	now := s.now()
	if vc.IsUsed() {
		return nil, ErrAlreadyUsed
	}
	if vc.IsExpired(now) {
		return nil, ErrExpired
	}

	consumed, err := s.markUsed(ctx, vc.ID, now)
	switch {
	case err != nil:
		// The caller still gets the action; single use is not guaranteed for this code.
		slog.WarnContext(ctx, "failed to mark verification code used", "code_id", vc.ID, "error", err)
	case !consumed:
		return nil, ErrAlreadyUsed
	}

	s.cleanupAsync(ctx)

	return &Redemption{
		ActionType: vc.ActionType,
		ActionData: vc.ActionData,
		Email:      vc.Email,
	}, nil
}

// markUsed sets used_at with a conditional update. consumed is false when a
// concurrent redemption already set it.
func (s *Service) markUsed(ctx context.Context, id string, now time.Time) (consumed bool, err error) {
	return s.store.MarkVerificationCodeUsed(ctx, id, now)
}

// cleanupAsync deletes expired codes in the background. Failures are logged only.
func (s *Service) cleanupAsync(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()

		n, err := s.Cleanup(ctx)
		if err != nil {
			slog.WarnContext(ctx, "verification code cleanup failed", "error", err)
			return
		}
		if n > 0 {
			slog.DebugContext(ctx, "expired verification codes deleted", "count", n)
		}
	}()
}

// Cleanup deletes every code that expired before now.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, ErrNotConfigured
	}
	return s.store.DeleteExpiredVerificationCodes(ctx, s.now())
}

// Wait blocks until background cleanups have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Issue creates a code for req and sends it to req.Email. The stored code is
// removed again when delivery fails.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*Issued, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, ErrInvalidEmail
	}
	actionType := strings.TrimSpace(req.ActionType)
	if actionType == "" {
		return nil, ErrMissingActionType
	}
	if s.store == nil || s.mailer == nil {
		return nil, ErrNotConfigured
	}

	code, err := GenerateCode(s.length)
	if err != nil {
		return nil, err
	}

	vc := &models.VerificationCode{
		ID:         uuid.NewString(),
		Code:       code,
		ActionType: actionType,
		ActionData: req.ActionData,
		Email:      strings.ToLower(addr.Address),
		ExpiresAt:  s.now().Add(s.ttl).UTC(),
	}
	if err := s.store.CreateVerificationCode(ctx, vc); err != nil {
		return nil, fmt.Errorf("storing verification code: %w", err)
	}

	msg := email.VerificationMessage{
		To:         vc.Email,
		Code:       vc.Code,
		ActionType: vc.ActionType,
		ExpiresAt:  vc.ExpiresAt,
	}
	if err := s.mailer.SendVerificationCode(ctx, msg); err != nil {
		if delErr := s.store.DeleteVerificationCode(context.WithoutCancel(ctx), vc.ID); delErr != nil {
			slog.WarnContext(ctx, "failed to remove undelivered verification code", "code_id", vc.ID, "error", delErr)
		}
		return nil, fmt.Errorf("sending verification code: %w", err)
	}

	slog.InfoContext(ctx, "verification code issued", "code_id", vc.ID, "action_type", vc.ActionType)

	return &Issued{CodeID: vc.ID, ExpiresAt: vc.ExpiresAt}, nil
}
