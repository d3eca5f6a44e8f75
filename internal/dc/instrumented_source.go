package dc

import (
	"context"

	"github.com/italolelis/modelscope_downloader/internal/telemetry"
)

// InstrumentedSource wraps a ManifestSource with telemetry.
type InstrumentedSource struct {
	source     ManifestSource
	telemetry  *telemetry.Telemetry
	clientType string
}

// NewInstrumentedSource creates a new instrumented manifest source.
func NewInstrumentedSource(source ManifestSource, tel *telemetry.Telemetry, clientType string) *InstrumentedSource {
	return &InstrumentedSource{
		source:     source,
		telemetry:  tel,
		clientType: clientType,
	}
}

// ListFiles lists the repository files with telemetry.
func (s *InstrumentedSource) ListFiles(ctx context.Context, repoID string) ([]Entry, error) {
	var result []Entry

	err := s.telemetry.InstrumentClientOperation(ctx, s.clientType, "list_files", func(ctx context.Context) error {
		var err error

		result, err = s.source.ListFiles(ctx, repoID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FileURL is a pure computation and is not instrumented.
func (s *InstrumentedSource) FileURL(repoID, path string) string {
	return s.source.FileURL(repoID, path)
}
