package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info("dropped")
	log.Warn("kept", "request_id", "r-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "r-1", line["request_id"])
	assert.Equal(t, "avd", line["service"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "text").Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
