package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/modelscope_downloader/internal/dc"
	"github.com/italolelis/modelscope_downloader/internal/downloader/progress"
	"github.com/italolelis/modelscope_downloader/internal/logctx"
	"github.com/italolelis/modelscope_downloader/internal/telemetry"
)

const (
	dirPerm   = 0755
	filePerm  = 0644
	chunkSize = 64 * 1024
)

// URLResolver maps a repository file to the URL it is served from.
type URLResolver interface {
	FileURL(repoID, path string) string
}

// Engine downloads single files, resuming partial local copies. One Engine
// is shared by every concurrent transfer of a download.
type Engine struct {
	client    *http.Client
	urls      URLResolver
	telemetry *telemetry.Telemetry
}

func NewEngine(client *http.Client, urls URLResolver, tel *telemetry.Telemetry) *Engine {
	if client == nil {
		client = http.DefaultClient
	}

	return &Engine{
		client:    client,
		urls:      urls,
		telemetry: tel,
	}
}

// Transfer brings root/entry.Path up to date with the remote blob.
//
// A local file whose size equals entry.Size is considered complete and no
// request is made; its content is not verified. A shorter file is resumed
// with a range request, and is rewritten from scratch when the server
// ignores the range or the local file is longer than entry.Size.
//
// The observer receives exactly one OnStart and one terminal event. Bytes
// written before a failure are left on disk for the next attempt.
func (e *Engine) Transfer(ctx context.Context, repoID string, entry dc.Entry, root string, obs progress.Observer) (Result, error) {
	if obs == nil {
		obs = progress.Nop{}
	}

	state := &State{Path: entry.Path, Size: entry.Size, Phase: PhaseNotStarted}

	err := e.telemetry.InstrumentDownload(ctx, func(ctx context.Context) error {
		return e.transfer(ctx, repoID, entry, root, obs, state)
	})

	status := "success"
	if err != nil {
		status = "error"
		state.Phase = PhaseFailed
	}

	e.telemetry.RecordTransfer(string(state.Mode), status)

	return Result{Path: entry.Path, Size: entry.Size, Written: state.Written, Mode: state.Mode}, err
}

func (e *Engine) transfer(ctx context.Context, repoID string, entry dc.Entry, root string, obs progress.Observer, state *State) error {
	logger := logctx.LoggerFromContext(ctx).With("repo_id", repoID, "file_path", entry.Path)
	name := entry.Path
	target := filepath.Join(root, filepath.FromSlash(entry.Path))

	var (
		f        *os.File
		existing int64
		err      error
	)

	if filepath.IsLocal(filepath.FromSlash(entry.Path)) {
		f, existing, err = openTarget(target)
	} else {
		err = &IOError{Path: target, Operation: "open", Err: ErrUnsafePath}
	}

	if err != nil {
		obs.OnStart(name, entry.Size)
		obs.OnError(name, err.Error())

		return err
	}

	state.Existing = existing
	state.Written = existing

	obs.OnStart(name, entry.Size)

	if existing == entry.Size {
		state.Mode = ModeSkipped
		state.Phase = PhaseComplete

		if err := f.Close(); err != nil {
			logger.Warn("failed to close file", "err", err)
		}

		logger.Debug("file already complete, skipping", "file_size", humanize.Bytes(uint64(max(entry.Size, 0))))
		obs.OnProgress(name, entry.Size, entry.Size)
		obs.OnComplete(name)

		return nil
	}

	if err := e.stream(ctx, repoID, entry, f, target, obs, state); err != nil {
		_ = f.Close()

		state.Phase = PhaseFailed
		logger.Error("failed to download file", "phase", state.Phase, "written", state.Written, "err", err)
		obs.OnError(name, err.Error())

		return err
	}

	if err := f.Close(); err != nil {
		state.Phase = PhaseFailed
		err = &IOError{Path: target, Operation: "close", Err: err}
		obs.OnError(name, err.Error())

		return err
	}

	state.Phase = PhaseComplete

	logger.Debug("downloaded and saved file", "mode", state.Mode, "target", target, "file_size", humanize.Bytes(uint64(max(state.Written, 0))))
	obs.OnComplete(name)

	return nil
}

func (e *Engine) stream(
	ctx context.Context, repoID string, entry dc.Entry, f *os.File, target string, obs progress.Observer, state *State,
) error {
	logger := logctx.LoggerFromContext(ctx)
	existing := state.Existing

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.urls.FileURL(repoID, entry.Path), nil)
	if err != nil {
		return &NetworkError{Path: entry.Path, Operation: "request", Err: err}
	}

	state.Mode = ModeFresh

	if existing > 0 && existing < entry.Size {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existing))

		state.Mode = ModeResumed
		state.Phase = PhaseResuming
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return &NetworkError{Path: entry.Path, Operation: "request", Err: err}
	}

	defer resp.Body.Close()

	// Chunks go straight to the file, so progress only counts bytes on disk.
	pw := progress.NewWriter(f, entry.Path, existing, entry.Size, obs)
	start := existing

	if (resp.StatusCode == http.StatusOK && existing > 0) || existing > entry.Size {
		logger.Info("restarting download from the beginning",
			"file_path", entry.Path, "existing", existing, "expected", entry.Size, "status", resp.StatusCode)

		state.Mode = ModeRestarted
		state.Phase = PhaseRestarting

		if err := f.Truncate(0); err != nil {
			return &IOError{Path: target, Operation: "truncate", Err: err}
		}

		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return &IOError{Path: target, Operation: "seek", Err: err}
		}

		start = 0
		state.Written = 0
		pw.Reset()
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return &HTTPError{Path: entry.Path, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	state.Phase = PhaseStreaming

	err = copyChunks(pw, resp.Body, entry.Path, target)
	state.Written = pw.Written()
	e.telemetry.AddBytes(state.Written - start)

	return err
}

// copyChunks streams src into dst, telling read failures apart from write failures.
func copyChunks(dst io.Writer, src io.Reader, path, target string) error {
	chunk := make([]byte, chunkSize)

	for {
		n, rerr := src.Read(chunk)
		if n > 0 {
			if _, err := dst.Write(chunk[:n]); err != nil {
				return &IOError{Path: target, Operation: "write", Err: err}
			}
		}

		if errors.Is(rerr, io.EOF) {
			return nil
		}

		if rerr != nil {
			return &NetworkError{Path: path, Operation: "read_body", Err: rerr}
		}
	}
}

// openTarget creates parent directories and opens the file for appending,
// returning the number of bytes already present.
func openTarget(target string) (*os.File, int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return nil, 0, &IOError{Path: target, Operation: "mkdir", Err: err}
	}

	info, err := os.Stat(target)

	switch {
	case err == nil:
		if info.IsDir() {
			return nil, 0, &IOError{Path: target, Operation: "open", Err: fmt.Errorf("is a directory")}
		}

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND, filePerm)
		if err != nil {
			return nil, 0, &IOError{Path: target, Operation: "open", Err: err}
		}

		return f, info.Size(), nil
	case errors.Is(err, fs.ErrNotExist):
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
		if err != nil {
			return nil, 0, &IOError{Path: target, Operation: "create", Err: err}
		}

		return f, 0, nil
	default:
		return nil, 0, &IOError{Path: target, Operation: "stat", Err: err}
	}
}
