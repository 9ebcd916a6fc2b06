package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New("booking-service", &buf)

	l.Info("catalog", "Loaded 3 events")
	l.LogAPI("GET", "/api/events", 200, 3*time.Millisecond)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "booking-service", entry.Service)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "CATALOG", entry.Category)
	assert.Equal(t, "Loaded 3 events", entry.Message)
	assert.Equal(t, "logger_test.go", entry.File)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "API", entry.Category)
	assert.Equal(t, "GET /api/events - 200 (3ms)", entry.Message)
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New("sink-service", &buf)
	l.SetLevel(WARN)

	l.Debug("SINK", "hidden")
	l.Info("SINK", "hidden")
	l.Warn("SINK", "shown")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "shown")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("APP", "nothing happens") })
}
