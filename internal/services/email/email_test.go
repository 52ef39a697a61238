// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"testing"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/config"
	"github.com/cp-church/angular-prayerapp-sub007/internal/i18n"
	"github.com/cp-church/angular-prayerapp-sub007/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func init() {
	_ = i18n.Init()
}

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Prayer App",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig())

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestCompose_English(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.English)
	msg := email.VerificationMessage{
		To:         "member@example.org",
		Code:       "482913",
		ActionType: "prayer_edit",
		ExpiresAt:  time.Now().Add(15 * time.Minute),
	}

	subject, body := email.Compose(ctx, msg)

	assert.Equal(t, "Your prayer request edit code", subject)
	assert.Contains(t, body, "482913")
	assert.Contains(t, body, "edit your prayer request")
	assert.Contains(t, body, "15 minutes")
}

func TestCompose_Spanish(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.Spanish)
	msg := email.VerificationMessage{
		Code:       "1234",
		ActionType: "preference_change",
		ExpiresAt:  time.Now().Add(10 * time.Minute),
	}

	subject, body := email.Compose(ctx, msg)

	assert.Equal(t, "Su código para cambiar preferencias", subject)
	assert.Contains(t, body, "1234")
	assert.Contains(t, body, "10 minutos")
}

func TestCompose_UnknownActionFallsBack(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.English)
	msg := email.VerificationMessage{
		Code:       "5678",
		ActionType: "something_new",
		ExpiresAt:  time.Now().Add(time.Minute),
	}

	subject, body := email.Compose(ctx, msg)

	assert.Equal(t, "Your verification code", subject)
	assert.Contains(t, body, "5678")
	assert.Contains(t, body, "confirm your request")
}

func TestCompose_SingularDuration(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.English)
	msg := email.VerificationMessage{
		Code:      "5678",
		ExpiresAt: time.Now().Add(time.Minute),
	}

	_, body := email.Compose(ctx, msg)

	assert.Contains(t, body, "valid for 1 minute and")
}

func TestCompose_ExpiredRoundsUpToOneMinute(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.Spanish)
	msg := email.VerificationMessage{
		Code:      "5678",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	_, body := email.Compose(ctx, msg)

	assert.Contains(t, body, "durante 1 minuto y")
}

func TestLogMailer(t *testing.T) {
	var m email.LogMailer

	err := m.SendVerificationCode(context.Background(), email.VerificationMessage{
		To:   "member@example.org",
		Code: "1234",
	})

	assert.NoError(t, err)
}
