package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/italolelis/modelscope_downloader/internal/dc"
	"github.com/italolelis/modelscope_downloader/internal/downloader/progress"
	"github.com/italolelis/modelscope_downloader/internal/logctx"
	"github.com/italolelis/modelscope_downloader/internal/storage"
	"github.com/italolelis/modelscope_downloader/internal/transfer"
	"golang.org/x/sync/errgroup"
)

const (
	dirPerm = 0755
)

// ErrFileNotFound is returned by DownloadFile when the manifest has no blob at the requested path.
var ErrFileNotFound = errors.New("file not found in model")

// ErrInvalidRepoID is returned for model ids that would not resolve to a
// directory below the save directory.
var ErrInvalidRepoID = errors.New("invalid model id")

// FileTransferer brings a single manifest entry up to date on disk.
type FileTransferer interface {
	Transfer(ctx context.Context, repoID string, entry dc.Entry, root string, obs progress.Observer) (transfer.Result, error)
}

// DirRegistry remembers directories used as download roots.
type DirRegistry interface {
	Register(dir string) error
}

type Downloader struct {
	source      dc.ManifestSource
	transfers   FileTransferer
	registry    DirRegistry
	history     storage.DownloadWriteRepository
	observer    progress.Observer
	maxParallel int
}

// NewDownloader wires the scheduler. registry and history may be nil. A
// maxParallel of zero or less runs one transfer per file with no cap.
func NewDownloader(
	source dc.ManifestSource,
	transfers FileTransferer,
	observer progress.Observer,
	registry DirRegistry,
	history storage.DownloadWriteRepository,
	maxParallel int,
) *Downloader {
	if observer == nil {
		observer = progress.Nop{}
	}

	return &Downloader{
		source:      source,
		transfers:   transfers,
		registry:    registry,
		history:     history,
		observer:    observer,
		maxParallel: maxParallel,
	}
}

// ValidateRepoID rejects ids that do not name a directory below the save
// directory, such as absolute ids or ids containing "..".
func ValidateRepoID(repoID string) error {
	if !filepath.IsLocal(filepath.FromSlash(repoID)) {
		return fmt.Errorf("%w: %q", ErrInvalidRepoID, repoID)
	}

	return nil
}

// ModelDir is the directory a repository is downloaded into.
func ModelDir(saveDir, repoID string) string {
	return filepath.Join(saveDir, filepath.FromSlash(repoID))
}

// Download fetches the manifest of repoID and downloads every blob into saveDir/repoID.
func (d *Downloader) Download(ctx context.Context, repoID, saveDir string) error {
	if err := ValidateRepoID(repoID); err != nil {
		return err
	}

	entries, err := d.source.ListFiles(ctx, repoID)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	return d.Run(ctx, repoID, entries, saveDir)
}

// Run downloads every blob in entries concurrently. A failing file never
// stops the others; once all transfers have finished, every failure is
// reported in an *AggregateError. Files that completed stay on disk.
func (d *Downloader) Run(ctx context.Context, repoID string, entries []dc.Entry, saveDir string) error {
	if err := ValidateRepoID(repoID); err != nil {
		return err
	}

	logger := logctx.LoggerFromContext(ctx).With("repo_id", repoID)
	root := ModelDir(saveDir, repoID)

	if err := os.MkdirAll(root, dirPerm); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	if d.registry != nil {
		if err := d.registry.Register(saveDir); err != nil {
			return fmt.Errorf("failed to register save directory: %w", err)
		}
	}

	blobs := dc.Blobs(entries)

	logger.Info("downloading model", "path", root, "file_count", len(blobs), "max_parallel", d.maxParallel)

	var (
		wg       errgroup.Group
		mu       sync.Mutex
		failures []FileFailure
	)

	if d.maxParallel > 0 {
		wg.SetLimit(d.maxParallel)
	}

	for _, entry := range blobs {
		wg.Go(func() error {
			if err := d.transfer(ctx, repoID, entry, root); err != nil {
				mu.Lock()
				failures = append(failures, FileFailure{Path: entry.Path, Err: err})
				mu.Unlock()
			}

			// Failures are collected above so that no sibling is cancelled.
			return nil
		})
	}

	_ = wg.Wait()

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })

		logger.Error("model download finished with failures", "failed", len(failures), "total", len(blobs))

		return &AggregateError{RepoID: repoID, Total: len(blobs), Failures: failures}
	}

	logger.Info("model download completed", "path", root, "file_count", len(blobs))

	return nil
}

// DownloadFile downloads the single blob at filePath (exact, case-sensitive
// match) without registering the save directory.
func (d *Downloader) DownloadFile(ctx context.Context, repoID, filePath, saveDir string) error {
	if err := ValidateRepoID(repoID); err != nil {
		return err
	}

	logger := logctx.LoggerFromContext(ctx).With("repo_id", repoID, "file_path", filePath)

	entries, err := d.source.ListFiles(ctx, repoID)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	entry, ok := findBlob(entries, filePath)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}

	root := ModelDir(saveDir, repoID)
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	logger.Info("downloading file", "path", root)

	return d.transfer(ctx, repoID, entry, root)
}

func (d *Downloader) transfer(ctx context.Context, repoID string, entry dc.Entry, root string) error {
	res, err := d.transfers.Transfer(ctx, repoID, entry, root, d.observer)

	d.track(ctx, repoID, res, err)

	return err
}

// track records the outcome in the history. History is best effort and
// never fails a download.
func (d *Downloader) track(ctx context.Context, repoID string, res transfer.Result, transferErr error) {
	if d.history == nil {
		return
	}

	record := storage.DownloadRecord{
		RepoID:       repoID,
		FilePath:     res.Path,
		Size:         res.Size,
		Written:      res.Written,
		Mode:         string(res.Mode),
		Status:       storage.StatusDownloaded,
		DownloadedAt: time.Now(),
	}

	if transferErr != nil {
		record.Status = storage.StatusFailed
		record.Error = transferErr.Error()
	}

	// The caller's context may already be cancelled; the record is still worth keeping.
	if err := d.history.TrackDownload(context.WithoutCancel(ctx), record); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to record download", "repo_id", repoID, "file_path", res.Path, "err", err)
	}
}

func findBlob(entries []dc.Entry, path string) (dc.Entry, bool) {
	for _, e := range entries {
		if e.Path == path {
			return e, e.IsBlob()
		}
	}

	return dc.Entry{}, false
}

// FileFailure is a file that could not be downloaded.
type FileFailure struct {
	Path string
	Err  error
}

// AggregateError reports every file of a download that failed.
type AggregateError struct {
	RepoID   string
	Total    int
	Failures []FileFailure
}

func (e *AggregateError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "failed to download %d of %d files of %s", len(e.Failures), e.Total, e.RepoID)

	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Path, f.Err)
	}

	return b.String()
}

// Unwrap exposes each file's error to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}

	return errs
}
