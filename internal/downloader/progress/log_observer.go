package progress

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// LogObserver writes one log line per event. Progress lines are emitted at
// DEBUG since a large file produces thousands of them.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnStart(name string, size int64) {
	o.logger.Info("download started", "file_path", name, "file_size", humanize.Bytes(uint64(max(size, 0))))
}

func (o *LogObserver) OnProgress(name string, written, total int64) {
	if total > 0 {
		o.logger.Debug("download progress",
			"file_path", name,
			"downloaded", humanize.Bytes(uint64(max(written, 0))),
			"total", humanize.Bytes(uint64(total)),
			"percent", humanize.FtoaWithDigits(float64(written)*100/float64(total), 2))

		return
	}

	o.logger.Debug("download progress", "file_path", name, "downloaded", humanize.Bytes(uint64(max(written, 0))))
}

func (o *LogObserver) OnComplete(name string) {
	o.logger.Info("download completed", "file_path", name)
}

func (o *LogObserver) OnError(name, message string) {
	o.logger.Error("download failed", "file_path", name, "err", message)
}
