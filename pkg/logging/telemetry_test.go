package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"statecraft/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetryManager_DisabledInstallsConsoleLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
	t.Setenv("ENABLE_PRETTY_LOGS", "false")
	t.Setenv("LOG_LEVEL", "info")

	var out bytes.Buffer
	tm := NewTelemetryManager(&config.Config{ServiceName: "statecraft-test", NodeEnv: "test"})
	tm.out = &out

	require.NoError(t, tm.Initialize(context.Background()))
	assert.Contains(t, out.String(), `"msg":"Telemetry disabled"`)
	assert.Contains(t, out.String(), `"service":"statecraft-test"`)
	assert.Same(t, tm.Logger(), slog.Default())
	assert.NoError(t, tm.Shutdown(context.Background()))
}

func TestTelemetryManager_ResourceCarriesBuild(t *testing.T) {
	tm := NewTelemetryManager(&config.Config{ServiceName: "statecraft-warden", NodeEnv: "production"})
	tm.build.Version = "1.4.0"
	tm.build.Commit = "abc1234"

	attrs := map[string]string{}
	for _, kv := range tm.resourceAttributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "statecraft-warden", attrs["service.name"])
	assert.Equal(t, "1.4.0", attrs["service.version"])
	assert.Equal(t, "production", attrs["deployment.environment"])
	assert.Equal(t, "abc1234", attrs["vcs.revision"])
}
