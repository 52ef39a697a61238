// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/database"
	"github.com/cp-church/angular-prayerapp-sub007/internal/models"
	"github.com/cp-church/angular-prayerapp-sub007/internal/repository"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// CodeOption customizes a fixture created by NewTestCode.
type CodeOption func(*models.VerificationCode)

// WithExpiry sets the expiry instant.
func WithExpiry(expiresAt time.Time) CodeOption {
	return func(c *models.VerificationCode) { c.ExpiresAt = expiresAt }
}

// WithActionData sets the JSON payload.
func WithActionData(data string) CodeOption {
	return func(c *models.VerificationCode) { c.ActionData = models.ActionData(data) }
}

// WithID sets the code id.
func WithID(id string) CodeOption {
	return func(c *models.VerificationCode) { c.ID = id }
}

// NewTestCode stores an unused verification code valid for one hour.
func NewTestCode(t *testing.T, repo *repository.Repository, code string, opts ...CodeOption) *models.VerificationCode {
	t.Helper()
	vc := &models.VerificationCode{
		ID:         uuid.NewString(),
		Code:       code,
		ActionType: "prayer_edit",
		ActionData: models.ActionData(`{"prayerId":"42"}`),
		Email:      "member@example.org",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}
	for _, opt := range opts {
		opt(vc)
	}
	require.NoError(t, repo.CreateVerificationCode(context.Background(), vc))
	return vc
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
