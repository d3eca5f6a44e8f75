package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/italolelis/modelscope_downloader/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *InstrumentedDownloadRepository {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "nested", "downloads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewInstrumentedDownloadRepository(db, nil)
}

func TestTrackDownload_Upserts(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, repo.TrackDownload(ctx, storage.DownloadRecord{
		RepoID: "org/model", FilePath: "model.bin", Size: 100, Written: 40,
		Mode: "fresh", Status: storage.StatusFailed, Error: "HTTP 500", DownloadedAt: first,
	}))

	require.NoError(t, repo.TrackDownload(ctx, storage.DownloadRecord{
		RepoID: "org/model", FilePath: "model.bin", Size: 100, Written: 100,
		Mode: "resumed", Status: storage.StatusDownloaded, DownloadedAt: first.Add(time.Minute),
	}))

	got, err := repo.GetDownload(ctx, "org/model", "model.bin")
	require.NoError(t, err)

	assert.Equal(t, storage.DownloadRecord{
		RepoID: "org/model", FilePath: "model.bin", Size: 100, Written: 100,
		Mode: "resumed", Status: storage.StatusDownloaded, DownloadedAt: first.Add(time.Minute),
	}, got)

	all, err := repo.GetDownloads(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetDownload_NotFound(t *testing.T) {
	_, err := newRepo(t).GetDownload(context.Background(), "org/model", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDownloads_FiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	records := []storage.DownloadRecord{
		{RepoID: "a/one", FilePath: "x", Status: storage.StatusDownloaded, DownloadedAt: base},
		{RepoID: "a/one", FilePath: "y", Status: storage.StatusDownloaded, DownloadedAt: base.Add(2 * time.Hour)},
		{RepoID: "b/two", FilePath: "z", Status: storage.StatusFailed, Error: "boom", DownloadedAt: base.Add(time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, repo.TrackDownload(ctx, r))
	}

	one, err := repo.GetDownloads(ctx, "a/one")
	require.NoError(t, err)
	require.Len(t, one, 2)
	assert.Equal(t, "y", one[0].FilePath)
	assert.Equal(t, "x", one[1].FilePath)

	all, err := repo.GetDownloads(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "boom", all[1].Error)
}

func TestTrackDownload_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, repo.TrackDownload(ctx, storage.DownloadRecord{
				RepoID: "org/model", FilePath: fmt.Sprintf("file-%d", i), Status: storage.StatusDownloaded,
			}))
		}()
	}

	wg.Wait()

	all, err := repo.GetDownloads(ctx, "org/model")
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
