package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskhub/taskhub-api/internal/config"
)

func TestSetup_LogLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logDebug bool
	}{
		{name: "debug level", level: "debug", logDebug: true},
		{name: "info level", level: "info", logDebug: false},
		{name: "invalid level falls back to info", level: "verbose", logDebug: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := Setup(config.ServerConfig{Port: 8080, LogLevel: tc.level})
			assert.NoError(t, err)
			assert.NotNil(t, log)
			assert.Equal(t, tc.logDebug, log.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	attached := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithContext(context.Background(), attached)
	assert.Same(t, attached, FromContext(ctx))

	// Without an attached logger, fall back to the default.
	assert.NotNil(t, FromContext(context.Background()))
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	def := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Same(t, def, FromContextOrDefault(context.Background(), def))

	attached := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithContext(context.Background(), attached)
	assert.Same(t, attached, FromContextOrDefault(ctx, def))
}
