package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/damacus/iron-sync/internal/config"
	"github.com/damacus/iron-sync/internal/models"
	"github.com/damacus/iron-sync/internal/orchestrator"
)

// Runner executes sync requests
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (models.Summary, error)
}

// SyncHandler exposes the orchestrator over HTTP
type SyncHandler struct {
	runner Runner
	bucket string
	root   string
	log    zerolog.Logger
}

func NewSyncHandler(runner Runner, bucket string, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{runner: runner, bucket: bucket, log: log}
}

// WithRoot confines request directories to root. Relative directories are
// resolved against it; absolute ones must lie below it.
func (h *SyncHandler) WithRoot(root string) *SyncHandler {
	if root != "" {
		root = filepath.Clean(root)
	}
	h.root = root
	return h
}

func (h *SyncHandler) resolveDirectory(dir string) (string, error) {
	if h.root == "" || strings.TrimSpace(dir) == "" {
		return dir, nil
	}
	rel := filepath.FromSlash(dir)
	if filepath.IsAbs(rel) {
		r, err := filepath.Rel(h.root, rel)
		if err != nil {
			return "", config.Invalidf("directory %q is outside %s", dir, h.root)
		}
		rel = r
	}
	if !filepath.IsLocal(rel) {
		return "", config.Invalidf("directory %q is outside %s", dir, h.root)
	}
	return filepath.Join(h.root, rel), nil
}

type syncBody struct {
	Directory string `json:"directory"`
	Extension string `json:"extension"`
}

// Health reports liveness and the configured bucket
func (h *SyncHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"bucket": h.bucket,
	})
}

// Trigger runs the intent named in the path with the directory and extension from the JSON body.
// The run is bound to the request context and blocks until it finishes.
func (h *SyncHandler) Trigger(c echo.Context) error {
	var body syncBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	req := orchestrator.Request{
		Intent:    orchestrator.Intent(c.Param("intent")),
		Directory: body.Directory,
		Extension: body.Extension,
	}

	dir, err := h.resolveDirectory(body.Directory)
	if err != nil {
		h.log.Warn().Err(err).Str("intent", string(req.Intent)).Str("directory", body.Directory).Msg("Rejected sync directory")
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	req.Directory = dir

	summary, err := h.runner.Run(c.Request().Context(), req)
	if err != nil {
		status := StatusForError(err)
		h.log.Warn().Err(err).
			Str("intent", string(req.Intent)).
			Str("directory", req.Directory).
			Int("status", status).
			Msg("Sync request failed")

		resp := ErrorResponse{Error: err.Error()}
		if len(summary.Reports) > 0 {
			resp.Summary = summary
		}
		return c.JSON(status, resp)
	}

	h.log.Info().
		Str("intent", string(req.Intent)).
		Str("directory", req.Directory).
		Int("failed", summary.Failed()).
		Msg("Sync request completed")
	return c.JSON(http.StatusOK, summary)
}
