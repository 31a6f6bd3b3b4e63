package logger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"INFO", zapcore.InfoLevel},
		{"Error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("creates console logger", func(t *testing.T) {
		log, err := New(&Config{Level: "debug", Format: "console", Output: "stdout"})
		require.NoError(t, err)
		require.NotNil(t, log)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("creates json logger", func(t *testing.T) {
		log, err := New(&Config{Level: "warn", Format: "json", Output: "stderr"})
		require.NoError(t, err)
		require.NotNil(t, log)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", ""} {
		log, err := NewForEnvironment(env)
		require.NoError(t, err)
		require.NotNil(t, log)
	}
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}

func TestTenantContext(t *testing.T) {
	tenantID := uuid.New()

	got, ok := TenantFrom(WithTenant(context.Background(), tenantID))
	require.True(t, ok)
	assert.Equal(t, tenantID, got)

	_, ok = TenantFrom(context.Background())
	assert.False(t, ok)
}

func TestGormLoggerTrace_TagsTenant(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	tenantID := uuid.New()
	ctx := WithTenant(context.Background(), tenantID)
	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, tenantID.String(), fields["tenant_id"])
	assert.Equal(t, "SELECT 1", fields["sql"])
}

func TestGormLoggerTrace_NoTenantInContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	_, present := entries[0].ContextMap()["tenant_id"]
	assert.False(t, present)
}

func TestGormLoggerLogMode(t *testing.T) {
	base, err := New(DefaultConfig())
	require.NoError(t, err)

	gl := NewGormLogger(base, gormlogger.Warn, WithSlowThreshold(0), WithIgnoreRecordNotFoundError(false))
	changed := gl.LogMode(gormlogger.Silent)

	// LogMode returns a copy, the original keeps its level
	assert.NotSame(t, gl, changed)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}
