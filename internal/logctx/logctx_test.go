package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	return entry
}

func spanContext(t *testing.T) context.Context {
	t.Helper()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestSpanHandler(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func(t *testing.T) context.Context
		traceID any
		spanID  any
	}{
		{
			name:    "outside a span",
			ctx:     func(*testing.T) context.Context { return context.Background() },
			traceID: nil,
			spanID:  nil,
		},
		{
			name:    "inside a span",
			ctx:     spanContext,
			traceID: "4bf92f3577b34da6a3ce929d0e0e4736",
			spanID:  "00f067aa0ba902b7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelInfo, "json")

			logger.InfoContext(tt.ctx(t), "file complete", "file_path", "config.json")

			entry := decodeLine(t, &buf)
			assert.Equal(t, "file complete", entry["msg"])
			assert.Equal(t, "config.json", entry["file_path"])
			assert.Equal(t, tt.traceID, entry["trace_id"])
			assert.Equal(t, tt.spanID, entry["span_id"])
		})
	}
}

func TestSpanHandler_KeepsAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json").
		With("component", "transfer").
		WithGroup("file")

	logger.InfoContext(spanContext(t), "progress", "written", 10)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "transfer", entry["component"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["file"].(map[string]any)["trace_id"])
	assert.Equal(t, float64(10), entry["file"].(map[string]any)["written"])
}

func TestNewLogger(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(&buf, slog.LevelInfo, "").Info("hello")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(&buf, slog.LevelInfo, "TEXT").Info("hello")

		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(&buf, slog.LevelWarn, "json").Info("hidden")

		assert.Empty(t, buf.String())
	})
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx = With(ctx, "repo_id", "damo/model")
	LoggerFromContext(ctx).Info("manifest fetched")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "damo/model", entry["repo_id"])
}

func TestLoggerFromContext_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), LoggerFromContext(context.Background()))
}
