package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/italolelis/modelscope_downloader/internal/storage"
)

// timeLayout has a fixed width so that timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DownloadRepository stores download records in SQLite.
type DownloadRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewDownloadRepository(dbConn *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: dbConn, now: time.Now}
}

// Ensure DownloadRepository implements storage.DownloadRepository
var _ storage.DownloadRepository = (*DownloadRepository)(nil)

// TrackDownload upserts the outcome of a file download.
func (r *DownloadRepository) TrackDownload(ctx context.Context, record storage.DownloadRecord) error {
	if record.DownloadedAt.IsZero() {
		record.DownloadedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downloads (repo_id, file_path, size, written, mode, status, error, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, file_path) DO UPDATE SET
			size = excluded.size,
			written = excluded.written,
			mode = excluded.mode,
			status = excluded.status,
			error = excluded.error,
			downloaded_at = excluded.downloaded_at
	`, record.RepoID, record.FilePath, record.Size, record.Written, record.Mode, record.Status,
		nullString(record.Error), record.DownloadedAt.UTC().Format(timeLayout))

	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
