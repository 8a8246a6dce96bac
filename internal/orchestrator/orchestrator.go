// Package orchestrator sequences transfer phases for a sync request.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/damacus/iron-sync/internal/config"
	"github.com/damacus/iron-sync/internal/filter"
	"github.com/damacus/iron-sync/internal/models"
	"github.com/damacus/iron-sync/internal/transfer"
	"github.com/damacus/iron-sync/internal/utils"
)

// ErrRunInProgress is returned when Run is called while another run holds the lock
var ErrRunInProgress = errors.New("a sync run is already in progress")

// Intent selects which phases a request runs
type Intent string

const (
	// IntentDownload mirrors matching objects locally, then evacuates them from the bucket
	IntentDownload Intent = "download"
	// IntentUpload pushes matching local files and removes them locally
	IntentUpload Intent = "upload"
	// IntentSync is the combined mode: download everything, upload the directory, empty the bucket
	IntentSync Intent = "sync"
)

// ParseIntent accepts an intent name case-insensitively
func ParseIntent(name string) (Intent, error) {
	switch i := Intent(strings.ToLower(strings.TrimSpace(name))); i {
	case IntentDownload, IntentUpload, IntentSync:
		return i, nil
	}
	return "", config.Invalidf("unknown intent %q (want download, upload or sync)", name)
}

// Request is one user-triggered run
type Request struct {
	Intent    Intent `json:"intent"`
	Directory string `json:"directory"`
	Extension string `json:"extension,omitempty"`
}

// Engine is the set of phases the orchestrator drives
type Engine interface {
	DownloadAll(ctx context.Context, bucket, destRoot string, c filter.Criteria) (models.Report, error)
	UploadAll(ctx context.Context, srcRoot, bucket string, c filter.Criteria) (models.Report, error)
	CleanBucket(ctx context.Context, bucket string, c filter.Criteria) (models.Report, error)
}

type Options struct {
	Bucket string
	// EvacuateOnDownload cleans the matching objects from the bucket after a download.
	// The clean pass lists the bucket again, so objects whose download failed, or
	// that a listing fault kept from being fetched, are removed as well.
	EvacuateOnDownload bool
	// LegacyDownloadDir is where the combined sync mirrors the bucket; defaults to the bucket name
	LegacyDownloadDir string
	Logger            transfer.Logger
}

// Orchestrator runs one request at a time against a single bucket
type Orchestrator struct {
	engine Engine
	opts   Options
	mu     sync.Mutex
}

func New(engine Engine, opts Options) *Orchestrator {
	if opts.LegacyDownloadDir == "" {
		opts.LegacyDownloadDir = opts.Bucket
	}
	return &Orchestrator{engine: engine, opts: opts}
}

type step struct {
	phase models.Phase
	run   func(ctx context.Context) (models.Report, error)
}

// Run validates req and executes its phases in order. Per-object failures are
// recorded in the summary; a setup error or cancellation stops the run and is
// returned together with the reports of the phases that already finished.
func (o *Orchestrator) Run(ctx context.Context, req Request) (models.Summary, error) {
	summary := models.Summary{Intent: string(req.Intent)}

	if !o.mu.TryLock() {
		return summary, ErrRunInProgress
	}
	defer o.mu.Unlock()

	steps, err := o.plan(req)
	if err != nil {
		return summary, err
	}

	for _, s := range steps {
		report, err := s.run(ctx)
		if err != nil {
			if !transfer.IsSetupError(err) {
				summary.Reports = append(summary.Reports, report)
			}
			o.logger().Error("Sync run aborted", err, "intent", req.Intent, "phase", s.phase)
			return summary, fmt.Errorf("%s: %w", req.Intent, err)
		}
		summary.Reports = append(summary.Reports, report)
	}

	var bytes int64
	for _, r := range summary.Reports {
		bytes += r.Bytes
	}
	o.logger().Info("Sync run finished",
		"intent", req.Intent,
		"phases", len(summary.Reports),
		"failed", summary.Failed(),
		"bytes", utils.FormatFileSize(bytes),
	)
	return summary, nil
}

func (o *Orchestrator) plan(req Request) ([]step, error) {
	intent, err := ParseIntent(string(req.Intent))
	if err != nil {
		return nil, err
	}
	dir := strings.TrimSpace(req.Directory)
	if dir == "" {
		return nil, config.Invalidf("directory is required for %s", intent)
	}
	if strings.TrimSpace(o.opts.Bucket) == "" {
		return nil, config.Invalidf("bucket is not configured")
	}

	bucket := o.opts.Bucket
	criteria := filter.Extension(req.Extension)

	download := func(root string, c filter.Criteria) step {
		return step{models.PhaseDownload, func(ctx context.Context) (models.Report, error) {
			return o.engine.DownloadAll(ctx, bucket, root, c)
		}}
	}
	upload := func(root string, c filter.Criteria) step {
		return step{models.PhaseUpload, func(ctx context.Context) (models.Report, error) {
			return o.engine.UploadAll(ctx, root, bucket, c)
		}}
	}
	clean := func(c filter.Criteria) step {
		return step{models.PhaseClean, func(ctx context.Context) (models.Report, error) {
			return o.engine.CleanBucket(ctx, bucket, c)
		}}
	}

	switch intent {
	case IntentSync:
		return []step{
			download(o.opts.LegacyDownloadDir, filter.All()),
			upload(dir, filter.SkipSourceFiles()),
			clean(filter.All()),
		}, nil
	case IntentUpload:
		return []step{upload(dir, criteria)}, nil
	default:
		steps := []step{download(dir, criteria)}
		if o.opts.EvacuateOnDownload {
			steps = append(steps, clean(criteria))
		}
		return steps, nil
	}
}

func (o *Orchestrator) logger() transfer.Logger {
	if o.opts.Logger == nil {
		return nopLogger{}
	}
	return o.opts.Logger
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)         {}
func (nopLogger) Error(string, error, ...any) {}
