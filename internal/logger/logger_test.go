package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, logger.ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{
		Writer:      &buf,
		Environment: "production",
		Level:       slog.LevelInfo,
	})

	log.Info("chapter loaded", "chapter", 3)

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"msg":"chapter loaded"`)
	assert.Contains(t, out, `"chapter":3`)
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{
		Writer:      &buf,
		Environment: "development",
		Level:       slog.LevelWarn,
	})

	log.Debug("hidden")
	log.Info("also hidden")
	log.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestPrettyHandlerIncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{
		Writer:      &buf,
		Environment: "development",
		Level:       slog.LevelDebug,
	})

	log.WithField("book_id", "intelligent-investor").Info("restored progress")

	out := buf.String()
	assert.True(t, strings.Contains(out, "book_id=intelligent-investor"), "output: %s", out)
}
