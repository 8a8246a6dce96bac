package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.POST("/sync/:intent", func(c echo.Context) error {
		return c.NoContent(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodPost, "/sync/upload?dry=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/sync/upload?dry=1", line["path"])
	assert.EqualValues(t, http.StatusAccepted, line["status"])
	assert.Equal(t, "Request processed", line["message"])
}

func TestRequestLogger_ErrorsLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Contains(t, line["error"], "boom")
}
