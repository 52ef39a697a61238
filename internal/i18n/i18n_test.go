// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"github.com/cp-church/angular-prayerapp-sub007/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	err := i18n.Init()
	require.NoError(t, err)
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "Prayer App", i18n.T(ctx, "app_name"))
	assert.Equal(t, "Your verification code", i18n.T(ctx, "verification_subject"))
}

func TestT_Spanish(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.Spanish)

	assert.Equal(t, "Su código de verificación", i18n.T(ctx, "verification_subject"))
}

func TestT_UnknownKey(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	// Unknown messages come back as their ID
	result := i18n.T(ctx, "unknown_key_that_does_not_exist")
	assert.Equal(t, "unknown_key_that_does_not_exist", result)
}

func TestT_NoLocaleContext(t *testing.T) {
	require.NoError(t, i18n.Init())

	result := i18n.T(context.Background(), "action_default")
	assert.Equal(t, "confirm your request", result)
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	result := i18n.TData(ctx, "verification_code_body", map[string]any{
		"Code":    "0042",
		"Action":  "edit your prayer request",
		"Duration": "15 minutes",
	})
	assert.Contains(t, result, "0042")
	assert.Contains(t, result, "Use this code to edit your prayer request")
	assert.Contains(t, result, "15 minutes")
}

func TestTPlural(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "1 minute", i18n.TPlural(ctx, "minutes", 1))
	assert.Equal(t, "5 minutes", i18n.TPlural(ctx, "minutes", 5))

	es := i18n.WithLocale(context.Background(), language.Spanish)
	assert.Equal(t, "1 minuto", i18n.TPlural(es, "minutes", 1))
	assert.Equal(t, "15 minutos", i18n.TPlural(es, "minutes", 15))
}

func TestHas(t *testing.T) {
	require.NoError(t, i18n.Init())

	assert.True(t, i18n.Has("verification_subject"))
	assert.True(t, i18n.Has("action_prayer_edit"))
	assert.False(t, i18n.Has("action_something_new"))
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		expected       language.Tag
		acceptLanguage string
	}{
		{language.English, "en"},
		{language.English, "en-US"},
		{language.Spanish, "es"},
		{language.Spanish, "es-MX"},
		{language.Spanish, "es-419"},
		{language.English, "fr"}, // fallback to English
		{language.English, ""},   // empty defaults to English
		{language.Spanish, "es, en;q=0.9"},
		{language.English, "en, es;q=0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.acceptLanguage, func(t *testing.T) {
			tag := i18n.MatchLanguage(tt.acceptLanguage)
			base, _ := tag.Base()
			expected, _ := tt.expected.Base()
			assert.Equal(t, expected, base)
		})
	}
}

func TestWithLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.Spanish)

	assert.Equal(t, "es", i18n.GetLocale(ctx))
}

func TestGetLocale_Default(t *testing.T) {
	assert.Equal(t, "en", i18n.GetLocale(context.Background()))
}
