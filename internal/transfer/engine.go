// Package transfer moves objects between a bucket and a local directory tree.
//
// Each phase walks its whole source, applies a filter.Criteria and treats every
// object independently: per-object faults are logged, recorded in the phase
// models.Report and skipped. Only setup problems (an unusable local root) and
// context cancellation end a phase early with an error.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/damacus/iron-sync/internal/filter"
	"github.com/damacus/iron-sync/internal/models"
	"github.com/damacus/iron-sync/internal/services"
	"github.com/damacus/iron-sync/internal/utils"
)

const (
	dirPerm  = 0o755
	tempGlob = ".ironsync-*.part"
)

// Options configures an Engine. Nil fields disable logging and progress.
type Options struct {
	Logger   Logger
	Progress ProgressFunc
}

// Engine runs download, upload and clean phases against one gateway
type Engine struct {
	gateway  services.StorageGateway
	log      Logger
	progress ProgressFunc
}

// New creates an engine bound to gateway
func New(gateway services.StorageGateway, opts Options) *Engine {
	e := &Engine{gateway: gateway, log: opts.Logger, progress: opts.Progress}
	if e.log == nil {
		e.log = nopLogger{}
	}
	if e.progress == nil {
		e.progress = func(string) Progress { return nopProgress{} }
	}
	return e
}

// DownloadAll copies every matching object of bucket below destRoot, creating
// directories as needed and overwriting existing files.
func (e *Engine) DownloadAll(ctx context.Context, bucket, destRoot string, c filter.Criteria) (models.Report, error) {
	report := models.Report{Phase: models.PhaseDownload, Bucket: bucket, Root: destRoot}
	start := time.Now()

	if err := os.MkdirAll(destRoot, dirPerm); err != nil {
		return report, &SetupError{Phase: models.PhaseDownload, Path: destRoot, Err: err}
	}

	bar := e.progress(fmt.Sprintf("downloading %s", bucket))
	err := e.eachObject(ctx, bucket, c, &report, func(obj models.ObjectEntry) {
		_ = bar.Add(1)
		e.downloadObject(ctx, bucket, destRoot, obj, &report)
	})
	_ = bar.Finish()

	return e.finish(&report, start, err)
}

func (e *Engine) downloadObject(ctx context.Context, bucket, destRoot string, obj models.ObjectEntry, report *models.Report) {
	dest, err := localPath(destRoot, obj.Key)
	if err != nil {
		report.Attempted++
		report.AddFailure(obj.Key, KindInvalidKey, err)
		e.log.Error("Skipping object", err, "bucket", bucket, "key", obj.Key)
		return
	}

	if obj.IsFolder() {
		if err := os.MkdirAll(dest, dirPerm); err != nil {
			report.Attempted++
			report.AddFailure(obj.Key, KindLocal, err)
			e.log.Error("Failed to create directory", err, "key", obj.Key, "path", dest)
		}
		return
	}

	report.Attempted++
	n, kind, err := e.fetch(ctx, bucket, obj.Key, dest)
	if err != nil {
		report.AddFailure(obj.Key, kind, err)
		e.log.Error("Failed to download object", err, "bucket", bucket, "key", obj.Key, "kind", kind)
		return
	}

	report.Succeeded++
	report.Bytes += n
	e.log.Info(fmt.Sprintf("Downloaded %s to %s", obj.Key, dest), "bytes", n)
}

// fetch streams key into a temporary file next to dest and renames it into
// place, so dest is either the old content or the complete new object.
func (e *Engine) fetch(ctx context.Context, bucket, key, dest string) (int64, string, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return 0, KindLocal, err
	}

	body, err := e.gateway.GetObject(ctx, bucket, key)
	if err != nil {
		return 0, faultKind(err), err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(dir, tempGlob)
	if err != nil {
		return 0, KindLocal, err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	src := &trackingReader{r: body}
	n, err := io.Copy(tmp, src)
	if err != nil {
		_ = tmp.Close()
		if src.err != nil {
			return n, KindTransport, fmt.Errorf("read %s: %w", key, err)
		}
		return n, KindLocal, err
	}
	if err := tmp.Close(); err != nil {
		return n, KindLocal, err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return n, KindLocal, err
	}
	committed = true
	return n, "", nil
}

// UploadAll puts every matching regular file below srcRoot into bucket under its
// slash-separated relative path. A file is removed locally only after the
// gateway confirmed its upload; directories are left in place.
func (e *Engine) UploadAll(ctx context.Context, srcRoot, bucket string, c filter.Criteria) (models.Report, error) {
	report := models.Report{Phase: models.PhaseUpload, Bucket: bucket, Root: srcRoot}
	start := time.Now()

	// WalkDir does not descend into a symlinked root, so walk its target
	root, err := filepath.EvalSymlinks(srcRoot)
	if err != nil {
		return report, &SetupError{Phase: models.PhaseUpload, Path: srcRoot, Err: ErrDirectoryNotFound}
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return report, &SetupError{Phase: models.PhaseUpload, Path: srcRoot, Err: ErrDirectoryNotFound}
	}

	bar := e.progress(fmt.Sprintf("uploading %s", srcRoot))
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return &SetupError{Phase: models.PhaseUpload, Path: srcRoot, Err: walkErr}
			}
			rel := relativeKey(root, path)
			report.Attempted++
			report.AddFailure(rel, KindLocal, walkErr)
			e.log.Error("Failed to read local path", walkErr, "path", path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		key := relativeKey(root, path)
		if !c.Matches(key) {
			return nil
		}
		_ = bar.Add(1)
		e.uploadFile(ctx, bucket, filepath.Join(srcRoot, filepath.FromSlash(key)), key, &report)
		return nil
	})
	_ = bar.Finish()

	var setupErr *SetupError
	if errors.As(err, &setupErr) {
		return report, err
	}
	return e.finish(&report, start, err)
}

func (e *Engine) uploadFile(ctx context.Context, bucket, path, key string, report *models.Report) {
	report.Attempted++

	f, err := os.Open(path)
	if err != nil {
		report.AddFailure(key, KindLocal, err)
		e.log.Error("Failed to open file", err, "path", path)
		return
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		report.AddFailure(key, KindLocal, err)
		e.log.Error("Failed to stat file", err, "path", path)
		return
	}

	err = e.gateway.PutObject(ctx, bucket, key, f, info.Size())
	_ = f.Close()
	if err != nil {
		kind := faultKind(err)
		report.AddFailure(key, kind, err)
		e.log.Error("Failed to upload file", err, "path", path, "bucket", bucket, "key", key, "kind", kind)
		return
	}
	e.log.Info(fmt.Sprintf("Uploaded %s to s3://%s/%s", path, bucket, key), "bytes", info.Size())

	if err := os.Remove(path); err != nil {
		report.AddFailure(key, KindLocal, fmt.Errorf("uploaded but not removed: %w", err))
		e.log.Error("Failed to remove uploaded file", err, "path", path)
		return
	}
	report.Succeeded++
	report.Bytes += info.Size()
	e.log.Info(fmt.Sprintf("Deleted %s", path))
}

// CleanBucket deletes every matching object of bucket
func (e *Engine) CleanBucket(ctx context.Context, bucket string, c filter.Criteria) (models.Report, error) {
	report := models.Report{Phase: models.PhaseClean, Bucket: bucket}
	start := time.Now()

	bar := e.progress(fmt.Sprintf("cleaning %s", bucket))
	err := e.eachObject(ctx, bucket, c, &report, func(obj models.ObjectEntry) {
		_ = bar.Add(1)
		report.Attempted++
		if err := e.gateway.DeleteObject(ctx, bucket, obj.Key); err != nil {
			kind := faultKind(err)
			report.AddFailure(obj.Key, kind, err)
			e.log.Error("Failed to delete object", err, "bucket", bucket, "key", obj.Key, "kind", kind)
			return
		}
		report.Succeeded++
		report.Bytes += obj.Size
		e.log.Info(fmt.Sprintf("Deleted %s from %s", obj.Key, bucket))
	})
	_ = bar.Finish()

	return e.finish(&report, start, err)
}

// eachObject pages through the listing of bucket and calls fn for every
// matching entry. A listing fault ends the traversal and is recorded on report;
// only cancellation is returned.
func (e *Engine) eachObject(ctx context.Context, bucket string, c filter.Criteria, report *models.Report, fn func(models.ObjectEntry)) error {
	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := e.gateway.ListObjects(ctx, bucket, token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			report.ListingError = err.Error()
			e.log.Error("Failed to list objects", err, "bucket", bucket, "phase", report.Phase)
			return nil
		}

		for _, obj := range page.Objects {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !c.Matches(obj.Key) {
				continue
			}
			fn(obj)
		}

		if page.NextToken == "" {
			return nil
		}
		if page.NextToken == token {
			err := fmt.Errorf("listing did not advance past %q", token)
			report.ListingError = err.Error()
			e.log.Error("Failed to list objects", err, "bucket", bucket, "phase", report.Phase)
			return nil
		}
		token = page.NextToken
	}
}

func (e *Engine) finish(report *models.Report, start time.Time, err error) (models.Report, error) {
	report.Duration = time.Since(start)
	if err != nil {
		e.log.Error(fmt.Sprintf("%s interrupted", report.Phase), err, "bucket", report.Bucket)
		return *report, fmt.Errorf("%s %s: %w", report.Phase, report.Bucket, err)
	}
	e.log.Info(fmt.Sprintf("%s complete", report.Phase),
		"bucket", report.Bucket,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed(),
		"bytes", utils.FormatFileSize(report.Bytes),
		"duration", utils.FormatDuration(report.Duration),
		"rate", utils.FormatRate(report.Bytes, report.Duration),
	)
	return *report, nil
}

// localPath maps key below root, rejecting keys that would escape it or name root itself
func localPath(root, key string) (string, error) {
	rel := filepath.FromSlash(strings.TrimSuffix(key, "/"))
	if key == "" || strings.HasPrefix(key, "/") || !filepath.IsLocal(rel) || filepath.Clean(rel) == "." {
		return "", fmt.Errorf("key %q resolves outside %s", key, root)
	}
	return filepath.Join(root, rel), nil
}

func relativeKey(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// trackingReader remembers read errors so a failed copy can be blamed on the
// remote body rather than the local file
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
