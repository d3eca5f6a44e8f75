package telemetry

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/italolelis/modelscope_downloader/internal/logctx"
)

// RequestIDHeader carries the id of a metrics-server request.
const RequestIDHeader = "X-Request-ID"

const readHeaderTimeout = 5 * time.Second

// Routes exposes the Prometheus scrape endpoint and a liveness probe.
func (t *Telemetry) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(tagRequest, logRequest, t.instrumentHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", t.Handler())

	return r
}

// NewServer builds the metrics server. Requests inherit ctx so the logger
// stored in it is used by the logging middleware.
func (t *Telemetry) NewServer(ctx context.Context, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           t.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

// tagRequest reuses an upstream request id or mints one, echoes it back and
// attaches it to the request logger.
func tagRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(logctx.With(r.Context(), "request_id", id)))
	})
}

// logRequest keeps scrapes at DEBUG since Prometheus polls every few seconds.
func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)

		next.ServeHTTP(rw, r)

		level := slog.LevelDebug
		switch {
		case rw.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case rw.status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logctx.LoggerFromContext(r.Context()).Log(r.Context(), level, "metrics request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"bytes", rw.bytesWritten,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
