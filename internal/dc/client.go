package dc

import (
	"context"
	"fmt"
)

//go:generate mockgen -destination=./mocks/source.go . ManifestSource

// Kind tells a downloadable blob apart from a directory entry.
type Kind string

const (
	KindBlob Kind = "blob"
	KindTree Kind = "tree"
)

// Entry is one file listed in a repository manifest.
type Entry struct {
	Name   string
	Path   string
	Size   int64
	Sha256 string
	Kind   Kind
}

func (e Entry) IsBlob() bool {
	return e.Kind == KindBlob
}

// ManifestSource lists a repository's files and knows where each one is served from.
type ManifestSource interface {
	ListFiles(ctx context.Context, repoID string) ([]Entry, error)
	FileURL(repoID, path string) string
}

// Blobs returns the entries that take part in a transfer, in manifest order.
func Blobs(entries []Entry) []Entry {
	blobs := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if e.IsBlob() {
			blobs = append(blobs, e)
		}
	}

	return blobs
}

// ManifestUnavailableError is returned when the listing could not be fetched,
// either because of a transport failure or a non-2xx response.
type ManifestUnavailableError struct {
	RepoID     string
	StatusCode int    // 0 for transport failures
	Body       string // response body, if any
	Err        error
}

func (e *ManifestUnavailableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("failed to get files of %s (HTTP %d): %s\nTip: maybe the model ID is incorrect or login is required",
			e.RepoID, e.StatusCode, e.Body)
	}

	return fmt.Sprintf("failed to get files of %s: %v", e.RepoID, e.Err)
}

func (e *ManifestUnavailableError) Unwrap() error {
	return e.Err
}

// ManifestRejectedError is returned when the listing call succeeded but the
// server reported a failure in the payload.
type ManifestRejectedError struct {
	RepoID  string
	Message string
}

func (e *ManifestRejectedError) Error() string {
	return fmt.Sprintf("failed to get files of %s: %s", e.RepoID, e.Message)
}
