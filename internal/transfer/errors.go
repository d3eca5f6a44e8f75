package transfer

import (
	"errors"
	"fmt"
)

// ErrUnsafePath is returned for manifest paths that would land outside the
// model directory, such as absolute paths or paths containing "..".
var ErrUnsafePath = errors.New("path escapes the model directory")

// HTTPError is returned when a file request is answered with a status other
// than 200 OK or 206 Partial Content. It is not retried.
type HTTPError struct {
	Path       string // Relative path of the file in the repository
	StatusCode int    // HTTP status code of the response
	Status     string // Status line text, e.g. "404 Not Found"
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("failed to download %s: HTTP %s", e.Path, e.Status)
}

// IOError represents a local disk failure while preparing or writing a file.
// Bytes written before the failure stay on disk.
type IOError struct {
	Path      string // Local path of the file
	Operation string // The operation that failed (e.g., "open", "write", "truncate")
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NetworkError represents a failure to reach the server or an interruption
// while the response body was being read.
type NetworkError struct {
	Path      string // Relative path of the file in the repository
	Operation string // "request" or "read_body"
	Err       error  // Underlying error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
