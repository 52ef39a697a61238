// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/config"
	"github.com/cp-church/angular-prayerapp-sub007/internal/i18n"
	"github.com/wneessen/go-mail"
)

// VerificationMessage is a verification code on its way to a recipient.
type VerificationMessage struct {
	To         string
	Code       string
	ActionType string
	ExpiresAt  time.Time
}

// Service sends verification emails over SMTP.
type Service struct {
	cfg *config.SMTPConfig
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{cfg: cfg}, nil
}

// SendVerificationCode emails the code in the locale carried by ctx.
func (s *Service) SendVerificationCode(ctx context.Context, msg VerificationMessage) error {
	subject, body := Compose(ctx, msg)
	return s.send(ctx, msg.To, subject, body)
}

// Compose renders the localized subject and body for msg.
func Compose(ctx context.Context, msg VerificationMessage) (string, string) {
	minutes := max(int(time.Until(msg.ExpiresAt).Round(time.Minute).Minutes()), 1)

	subject := i18n.T(ctx, subjectID(msg.ActionType))
	body := i18n.TData(ctx, "verification_code_body", map[string]any{
		"Code":     msg.Code,
		"Action":   i18n.T(ctx, actionID(msg.ActionType)),
		"Duration": i18n.TPlural(ctx, "minutes", minutes),
	})
	return subject, body
}

// subjectID picks the subject message for an action type.
func subjectID(actionType string) string {
	if i18n.Has("verification_subject_" + actionType) {
		return "verification_subject_" + actionType
	}
	return "verification_subject"
}

func actionID(actionType string) string {
	if i18n.Has("action_" + actionType) {
		return "action_" + actionType
	}
	return "action_default"
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// LogMailer writes verification emails to the log instead of sending them.
// It is used when no SMTP server is configured.
type LogMailer struct{}

// SendVerificationCode logs the message.
func (LogMailer) SendVerificationCode(ctx context.Context, msg VerificationMessage) error {
	subject, _ := Compose(ctx, msg)
	slog.InfoContext(ctx, "verification email (SMTP disabled)",
		"to", msg.To,
		"subject", subject,
		"code", msg.Code,
		"expires_at", msg.ExpiresAt,
	)
	return nil
}
