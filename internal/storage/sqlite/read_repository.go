package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/italolelis/modelscope_downloader/internal/storage"
)

const selectColumns = `SELECT repo_id, file_path, size, written, mode, status, error, downloaded_at FROM downloads`

func (r *DownloadRepository) GetDownloads(ctx context.Context, repoID string) ([]storage.DownloadRecord, error) {
	query := selectColumns
	args := []any{}

	if repoID != "" {
		query += ` WHERE repo_id = ?`
		args = append(args, repoID)
	}

	query += ` ORDER BY downloaded_at DESC, file_path`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []storage.DownloadRecord

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		downloads = append(downloads, record)
	}

	return downloads, rows.Err()
}

func (r *DownloadRepository) GetDownload(ctx context.Context, repoID, filePath string) (storage.DownloadRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE repo_id = ? AND file_path = ?`, repoID, filePath)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.DownloadRecord{}, storage.ErrNotFound
	}

	return record, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (storage.DownloadRecord, error) {
	var (
		record       storage.DownloadRecord
		mode, errMsg sql.NullString
		downloadedAt string
	)

	if err := s.Scan(&record.RepoID, &record.FilePath, &record.Size, &record.Written, &mode, &record.Status, &errMsg, &downloadedAt); err != nil {
		return storage.DownloadRecord{}, err
	}

	record.Mode = mode.String
	record.Error = errMsg.String

	t, err := time.Parse(timeLayout, downloadedAt)
	if err != nil {
		return storage.DownloadRecord{}, fmt.Errorf("invalid downloaded_at %q: %w", downloadedAt, err)
	}

	record.DownloadedAt = t

	return record, nil
}
