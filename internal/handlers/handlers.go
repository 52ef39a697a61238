// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cp-church/angular-prayerapp-sub007/internal/services/verification"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	codes *verification.Service
}

// New creates a new Handlers instance.
func New(codes *verification.Service) *Handlers {
	return &Handlers{codes: codes}
}

// Health reports whether the verification store is reachable.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.codes.Ping(c.Request().Context()); err != nil {
		slog.WarnContext(c.Request().Context(), "health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
