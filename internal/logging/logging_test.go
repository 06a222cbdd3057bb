package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Config{Level: "warn", Format: "json", Output: &buf})

	zl.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	zl.Warn().Str("k", "v").Msg("kept")
	m := decode(t, &buf)
	assert.Equal(t, "kept", m["message"])
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "v", m["k"])
	assert.Contains(t, m, "time")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Config{Level: "info", Format: "console", Output: &buf})

	zl.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		"":         zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Config{Level: "debug", Output: &buf})
	logger := NewSlogLogger(zl)

	logger.Debug("recommend completed",
		"seed", "jazz.00001.wav",
		"results", 5,
		"duration", 1500*time.Microsecond,
		"ok", true,
		"score", 0.5,
	)

	m := decode(t, &buf)
	assert.Equal(t, "recommend completed", m["message"])
	assert.Equal(t, "debug", m["level"])
	assert.Equal(t, "jazz.00001.wav", m["seed"])
	assert.Equal(t, float64(5), m["results"])
	assert.Equal(t, true, m["ok"])
	assert.Equal(t, 0.5, m["score"])
	assert.Contains(t, m, "duration")
}

func TestSlogHandlerAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(New(Config{Level: "debug", Output: &buf}))

	logger.With("strategy", "track").WithGroup("req").With("id", "abc").
		Warn("recommend failed", "error", errors.New("boom"), slog.Group("n", "top", 3))

	m := decode(t, &buf)
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "track", m["strategy"])
	assert.Equal(t, "abc", m["req.id"])
	assert.Equal(t, "boom", m["req.error"])
	assert.Equal(t, float64(3), m["req.n.top"])
}

func TestSlogHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(New(Config{Level: "error", Output: &buf}))

	logger.Info("dropped")
	logger.Warn("dropped")
	assert.Empty(t, buf.String())

	logger.Error("kept")
	assert.NotEmpty(t, buf.String())
}
