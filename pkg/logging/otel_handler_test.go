package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
)

type recordingEmitter struct {
	embedded.Logger
	records []otellog.Record
}

func (r *recordingEmitter) Emit(ctx context.Context, record otellog.Record) {
	r.records = append(r.records, record)
}

func (r *recordingEmitter) Enabled(ctx context.Context, param otellog.EnabledParameters) bool {
	return true
}

func attributesOf(record otellog.Record) map[string]string {
	out := map[string]string{}
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value.AsString()
		return true
	})
	return out
}

func TestBridgeHandler_ForwardsRecords(t *testing.T) {
	var console bytes.Buffer
	emitter := &recordingEmitter{}
	logger := slog.New(newBridgeHandler(slog.NewJSONHandler(&console, nil), emitter))

	logger.With("module", "wars").WithGroup("war").Warn("War declared", "id", "w-1")

	assert.Contains(t, console.String(), `"msg":"War declared"`)
	require.Len(t, emitter.records, 1)
	record := emitter.records[0]
	assert.Equal(t, "War declared", record.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, record.Severity())
	assert.Equal(t, map[string]string{"module": "wars", "war.id": "w-1"}, attributesOf(record))
}

func TestBridgeHandler_RespectsConsoleLevel(t *testing.T) {
	emitter := &recordingEmitter{}
	console := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(newBridgeHandler(console, emitter))

	logger.Debug("Dropped")
	logger.Info("Kept")

	require.Len(t, emitter.records, 1)
	assert.Equal(t, "Kept", emitter.records[0].Body().AsString())
}

func TestSeverityOf(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, severityOf(slog.LevelDebug))
	assert.Equal(t, otellog.SeverityInfo, severityOf(slog.LevelInfo+2))
	assert.Equal(t, otellog.SeverityWarn, severityOf(slog.LevelWarn))
	assert.Equal(t, otellog.SeverityError, severityOf(slog.LevelError+4))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}
