package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/damacus/iron-sync/internal/config"
	"github.com/damacus/iron-sync/internal/orchestrator"
	"github.com/damacus/iron-sync/internal/transfer"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Summary any    `json:"summary,omitempty"`
}

// StatusForError maps a run error to the HTTP status reported to the caller
func StatusForError(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, config.ErrConfiguration):
		return http.StatusBadRequest
	case transfer.IsSetupError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		// client closed the request
		return 499
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
