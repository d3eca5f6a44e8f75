package storage

import (
	"context"
	"errors"
	"time"
)

const (
	StatusDownloaded = "downloaded"
	StatusFailed     = "failed"
)

var ErrNotFound = errors.New("download record not found")

// DownloadRecord is the last known outcome of a file download. There is one
// record per repository file; later attempts overwrite earlier ones.
type DownloadRecord struct {
	RepoID       string    `yaml:"repo_id"`
	FilePath     string    `yaml:"file_path"`
	Size         int64     `yaml:"size"`
	Written      int64     `yaml:"written"`
	Mode         string    `yaml:"mode"`
	Status       string    `yaml:"status"`
	Error        string    `yaml:"error,omitempty"`
	DownloadedAt time.Time `yaml:"downloaded_at"`
}

type DownloadReadRepository interface {
	// GetDownloads lists records, newest first. An empty repoID lists every repository.
	GetDownloads(ctx context.Context, repoID string) ([]DownloadRecord, error)
	GetDownload(ctx context.Context, repoID, filePath string) (DownloadRecord, error)
}

type DownloadWriteRepository interface {
	TrackDownload(ctx context.Context, record DownloadRecord) error
}

type DownloadRepository interface {
	DownloadReadRepository
	DownloadWriteRepository
}
