package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/damacus/iron-sync/internal/handlers"
	customMiddleware "github.com/damacus/iron-sync/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

func newServer(syncHandler *handlers.SyncHandler, apiToken string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(customMiddleware.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(customMiddleware.SecurityHeaders())
	// Apply auth middleware globally - it will skip /health internally
	e.Use(customMiddleware.TokenAuth(apiToken))

	// Public Routes
	e.GET("/health", syncHandler.Health)

	// Protected Routes
	e.POST("/sync/:intent", syncHandler.Trigger)

	return e
}

func (cl *commandLine) serve(c *cli.Context) error {
	if err := cl.cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, err := cl.orchestrator(ctx)
	if err != nil {
		return err
	}

	addr := cl.cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	if cl.cfg.Server.Root == "" {
		cl.log.Warn().Msg("SYNC_ROOT is not set, sync requests may name any directory")
	}

	syncHandler := handlers.NewSyncHandler(orch, cl.cfg.Storage.Bucket, cl.log).WithRoot(cl.cfg.Server.Root)
	e := newServer(syncHandler, cl.cfg.Server.APIToken, cl.log)

	errCh := make(chan error, 1)
	go func() {
		cl.log.Info().Str("addr", addr).Str("bucket", cl.cfg.Storage.Bucket).Msg("Listening")
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	cl.log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
