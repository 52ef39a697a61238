// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// JSONError writes an error response.
func JSONError(c echo.Context, code int, message, details string) error {
	return c.JSON(code, ErrorResponse{Error: message, Details: details})
}

// BadRequest writes a 400 error response.
func BadRequest(c echo.Context, message string) error {
	return JSONError(c, http.StatusBadRequest, message, "")
}

// InternalServerError writes a 500 error response.
func InternalServerError(c echo.Context, message, details string) error {
	return JSONError(c, http.StatusInternalServerError, message, details)
}

// HTTPErrorHandler renders errors returned by handlers and middleware as JSON.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	details := ""

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		if he.Internal != nil {
			details = he.Internal.Error()
		}
	} else {
		details = err.Error()
		slog.ErrorContext(c.Request().Context(), "unhandled error",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = JSONError(c, code, message, details)
	}
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
	}
}
