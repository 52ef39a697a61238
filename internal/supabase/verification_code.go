// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/models"
	"github.com/cp-church/angular-prayerapp-sub007/internal/repository"
)

const verificationCodes = "verification_codes"

type newVerificationCode struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	ActionType string            `json:"action_type"`
	ActionData models.ActionData `json:"action_data"`
	Email      string            `json:"email"`
	ExpiresAt  string            `json:"expires_at"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// CreateVerificationCode inserts a newly issued code.
func (c *Client) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	row := newVerificationCode{
		ID:         code.ID,
		Code:       code.Code,
		ActionType: code.ActionType,
		ActionData: code.ActionData,
		Email:      code.Email,
		ExpiresAt:  timestamp(code.ExpiresAt),
	}
	_, err := c.do(ctx, http.MethodPost, verificationCodes, nil, row, "return=minimal", nil)
	return err
}

// FindVerificationCode fetches the row matching both id and code.
func (c *Client) FindVerificationCode(ctx context.Context, id, code string) (*models.VerificationCode, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("code", "eq."+code)
	q.Set("limit", "1")

	var rows []models.VerificationCode
	if _, err := c.do(ctx, http.MethodGet, verificationCodes, q, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

// MarkVerificationCodeUsed sets used_at only where it is still null.
// It returns false when no row was updated.
func (c *Client) MarkVerificationCodeUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("used_at", "is.null")
	q.Set("select", "id")

	var rows []struct {
		ID string `json:"id"`
	}
	body := map[string]string{"used_at": timestamp(usedAt)}
	if _, err := c.do(ctx, http.MethodPatch, verificationCodes, q, body, "return=representation", &rows); err != nil {
		return false, err
	}
	return len(rows) == 1, nil
}

// DeleteVerificationCode deletes a code by ID.
func (c *Client) DeleteVerificationCode(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	_, err := c.do(ctx, http.MethodDelete, verificationCodes, q, nil, "return=minimal", nil)
	return err
}

// DeleteExpiredVerificationCodes deletes codes that expired before now and
// returns the count reported in Content-Range.
func (c *Client) DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	q := url.Values{}
	q.Set("expires_at", "lt."+timestamp(now))
	resp, err := c.do(ctx, http.MethodDelete, verificationCodes, q, nil, "return=minimal,count=exact", nil)
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(resp.Header.Get("Content-Range")), nil
}

// Ping issues a cheap read to confirm the store answers.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	var rows []struct{}
	if _, err := c.do(ctx, http.MethodGet, verificationCodes, q, nil, "", &rows); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// parseContentRangeTotal reads N from "*/N" or "0-4/N". Unknown totals yield 0.
func parseContentRangeTotal(header string) int64 {
	_, total, ok := strings.Cut(header, "/")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
