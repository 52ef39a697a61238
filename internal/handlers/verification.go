// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/models"
	"github.com/cp-church/angular-prayerapp-sub007/internal/services/verification"
	"github.com/labstack/echo/v4"
)

// VerifyCodeRequest is the request body for redeeming a code.
type VerifyCodeRequest struct {
	CodeID string     `json:"codeId"`
	Code   CodeString `json:"code"`
}

// CodeString accepts the code as a JSON string or a bare JSON number.
// Numbers keep their literal digits.
type CodeString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *CodeString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = CodeString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = CodeString(n.String())
	return nil
}

// decodeJSON reads the request body as JSON regardless of its Content-Type.
// An empty body decodes to the zero value.
func decodeJSON(c echo.Context, v any) error {
	err := json.NewDecoder(c.Request().Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// invalidBody reports a body that could not be decoded. Errors raised by
// middleware wrapping the body, like the size limit, pass through.
func invalidBody(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
}

// VerifyCodeResponse is returned when a code was redeemed.
type VerifyCodeResponse struct {
	Success    bool              `json:"success"`
	ActionType string            `json:"actionType"`
	ActionData models.ActionData `json:"actionData"`
	Email      string            `json:"email"`
	Message    string            `json:"message"`
}

// VerifyCode redeems a verification code and returns the action it authorizes.
func (h *Handlers) VerifyCode(c echo.Context) error {
	var req VerifyCodeRequest
	if err := decodeJSON(c, &req); err != nil {
		return invalidBody(c, err)
	}

	r, err := h.codes.Redeem(c.Request().Context(), req.CodeID, string(req.Code))
	if err != nil {
		return redeemError(c, err)
	}

	return c.JSON(http.StatusOK, VerifyCodeResponse{
		Success:    true,
		ActionType: r.ActionType,
		ActionData: r.ActionData,
		Email:      r.Email,
		Message:    "Code verified successfully",
	})
}

func redeemError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, verification.ErrMissingFields):
		return BadRequest(c, "Missing required fields")
	case errors.Is(err, verification.ErrInvalidFormat):
		return BadRequest(c, "Invalid code format")
	case errors.Is(err, verification.ErrNotFound):
		return BadRequest(c, "Invalid verification code")
	case errors.Is(err, verification.ErrAlreadyUsed):
		return BadRequest(c, "Code already used")
	case errors.Is(err, verification.ErrExpired):
		return BadRequest(c, "Code expired")
	case errors.Is(err, verification.ErrNotConfigured):
		slog.ErrorContext(c.Request().Context(), "verification store not configured")
		return InternalServerError(c, "Server configuration error", err.Error())
	default:
		slog.ErrorContext(c.Request().Context(), "failed to verify code", "error", err)
		return InternalServerError(c, "Failed to verify code", err.Error())
	}
}

// SendCodeRequest is the request body for issuing a code.
type SendCodeRequest struct {
	Email      string            `json:"email"`
	ActionType string            `json:"actionType"`
	ActionData models.ActionData `json:"actionData"`
}

// SendCodeResponse is returned when a code was issued.
type SendCodeResponse struct {
	Success   bool      `json:"success"`
	CodeID    string    `json:"codeId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Message   string    `json:"message"`
}

// SendCode issues a verification code and emails it.
func (h *Handlers) SendCode(c echo.Context) error {
	var req SendCodeRequest
	if err := decodeJSON(c, &req); err != nil {
		return invalidBody(c, err)
	}

	issued, err := h.codes.Issue(c.Request().Context(), verification.IssueRequest{
		Email:      req.Email,
		ActionType: req.ActionType,
		ActionData: req.ActionData,
	})
	switch {
	case errors.Is(err, verification.ErrInvalidEmail):
		return BadRequest(c, "Invalid email address")
	case errors.Is(err, verification.ErrMissingActionType):
		return BadRequest(c, "Missing required fields")
	case errors.Is(err, verification.ErrNotConfigured):
		slog.ErrorContext(c.Request().Context(), "verification store or mailer not configured")
		return InternalServerError(c, "Server configuration error", err.Error())
	case err != nil:
		slog.ErrorContext(c.Request().Context(), "failed to send verification code", "error", err)
		return InternalServerError(c, "Failed to send verification code", err.Error())
	}

	return c.JSON(http.StatusOK, SendCodeResponse{
		Success:   true,
		CodeID:    issued.CodeID,
		ExpiresAt: issued.ExpiresAt,
		Message:   "Verification code sent",
	})
}
