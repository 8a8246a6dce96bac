package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/damacus/iron-sync/internal/config"
	"github.com/damacus/iron-sync/internal/logger"
	"github.com/damacus/iron-sync/internal/models"
	"github.com/damacus/iron-sync/internal/orchestrator"
	"github.com/damacus/iron-sync/internal/progress"
	"github.com/damacus/iron-sync/internal/services"
	"github.com/damacus/iron-sync/internal/transfer"
	"github.com/damacus/iron-sync/internal/utils"
)

type gatewayBuilder func(ctx context.Context, opts services.GatewayOptions) (services.StorageGateway, error)

// commandLine holds what the commands share once Before has run
type commandLine struct {
	newGateway gatewayBuilder
	stderr     io.Writer

	cfg *config.Config
	log zerolog.Logger
}

func (cl *commandLine) app() *cli.App {
	return &cli.App{
		Name:  "ironsync",
		Usage: "Synchronize a local directory with an object storage bucket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (console or json)",
			},
		},
		Before: cl.setup,
		Commands: []*cli.Command{
			cl.transferCommand(orchestrator.IntentDownload, "Download matching objects, then remove them from the bucket"),
			cl.transferCommand(orchestrator.IntentUpload, "Upload matching files, then remove them locally"),
			cl.transferCommand(orchestrator.IntentSync, "Download the whole bucket, upload the directory and empty the bucket"),
			{
				Name:  "serve",
				Usage: "Run the HTTP trigger",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						EnvVars: []string{"SERVER_ADDR"},
					},
				},
				Action: cl.serve,
			},
		},
	}
}

func (cl *commandLine) transferCommand(intent orchestrator.Intent, usage string) *cli.Command {
	cmd := &cli.Command{
		Name:      string(intent),
		Usage:     usage,
		ArgsUsage: "<directory> [extension]",
		Action: func(c *cli.Context) error {
			return cl.runIntent(c, intent)
		},
	}
	if intent != orchestrator.IntentSync {
		cmd.Flags = []cli.Flag{
			&cli.StringFlag{
				Name:    "ext",
				Aliases: []string{"e"},
				Usage:   "Only transfer keys ending in this extension (e.g. .txt)",
			},
		}
	}
	return cmd
}

// setup loads configuration and the global logger; flags override the environment
func (cl *commandLine) setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = strings.ToLower(c.String("log-format"))
	}

	logger.Configure(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	cl.cfg = cfg
	cl.log = logger.Log
	return nil
}

func (cl *commandLine) orchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	if err := cl.cfg.Validate(); err != nil {
		return nil, err
	}

	opts := cl.cfg.GatewayOptions()
	opts.OnRetry = func(op string, err error, wait time.Duration) {
		cl.log.Warn().Err(err).Str("op", op).Dur("wait", wait).Msg("Retrying storage call")
	}
	gw, err := cl.newGateway(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("storage gateway: %w", err)
	}

	sink := logger.NewSink(cl.log)
	newBar := progress.Factory(cl.cfg.Sync.Progress, cl.stderr)
	engine := transfer.New(gw, transfer.Options{
		Logger:   sink,
		Progress: func(desc string) transfer.Progress { return newBar(desc) },
	})

	return orchestrator.New(engine, orchestrator.Options{
		Bucket:             cl.cfg.Storage.Bucket,
		EvacuateOnDownload: cl.cfg.Sync.EvacuateOnDownload,
		LegacyDownloadDir:  cl.cfg.Sync.LegacyDownloadDir,
		Logger:             sink,
	}), nil
}

func (cl *commandLine) runIntent(c *cli.Context, intent orchestrator.Intent) error {
	dir := strings.TrimSpace(c.Args().First())
	if dir == "" {
		return config.Invalidf("%s needs a directory argument", intent)
	}
	ext := c.String("ext")
	if ext == "" && intent != orchestrator.IntentSync {
		ext = c.Args().Get(1)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, err := cl.orchestrator(ctx)
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx, orchestrator.Request{Intent: intent, Directory: dir, Extension: ext})
	cl.logSummary(summary)
	return err
}

func (cl *commandLine) logSummary(summary models.Summary) {
	for _, r := range summary.Reports {
		event := cl.log.Info()
		if !r.Complete() {
			event = cl.log.Warn().Str("listing_error", r.ListingError)
		}
		event.
			Str("phase", string(r.Phase)).
			Str("bucket", r.Bucket).
			Int("attempted", r.Attempted).
			Int("succeeded", r.Succeeded).
			Int("failed", r.Failed()).
			Str("bytes", utils.FormatFileSize(r.Bytes)).
			Msg("Phase summary")
	}
}
