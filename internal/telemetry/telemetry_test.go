package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	called := false
	err = tel.InstrumentDownload(context.Background(), func(context.Context) error {
		called = true

		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// Recording on a disabled instance is a no-op.
	tel.RecordTransfer("fresh", "success")
	tel.AddBytes(10)
	tel.RecordSystemError("test", "noop")
	require.NoError(t, tel.Shutdown(context.Background()))

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry

	wantErr := errors.New("boom")
	err := tel.InstrumentClientOperation(context.Background(), "modelscope", "list_files", func(context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	require.NoError(t, tel.InstrumentDBOperation(context.Background(), "get", func(context.Context) error { return nil }))
	assert.NotNil(t, tel.Tracer())
}

func newEnabled(t *testing.T) *Telemetry {
	t.Helper()

	tel, err := New(context.Background(), Config{Enabled: true, ServiceName: "modelscope_downloader_test", ServiceVersion: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	return tel
}

func TestRoutes(t *testing.T) {
	tel := newEnabled(t)

	tel.RecordTransfer("resumed", "success")
	tel.AddBytes(2048)
	tel.RecordDownload("success", time.Second)

	srv := httptest.NewServer(tel.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-123")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)

	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
	assert.Contains(t, string(body), "transfers")
	assert.Contains(t, string(body), `mode="resumed"`)
	assert.Contains(t, string(body), "bytes_downloaded")
	assert.Contains(t, string(body), `path="/healthz"`)
}

func TestInstrumentOperation_PropagatesError(t *testing.T) {
	tel := newEnabled(t)

	wantErr := errors.New("listing failed")
	err := tel.InstrumentClientOperation(context.Background(), "modelscope", "list_files", func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestGetStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		301: "3xx",
		404: "4xx",
		503: "5xx",
		100: "unknown",
		700: "unknown",
	}

	for code, want := range tests {
		assert.Equal(t, want, getStatusClass(code), code)
	}
}

func TestResponseWriter_CapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	_, _ = rw.Write([]byte("hello"))
	rw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rw.status)
	assert.Equal(t, int64(5), rw.bytesWritten)
	assert.Same(t, rw, wrapResponseWriter(rw))
}
