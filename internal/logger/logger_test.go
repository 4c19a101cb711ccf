package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, DEBUG)

	l.Info("booking", "created transaction")

	line := strings.TrimSpace(buf.String())
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "BOOKING", entry.Category)
	assert.Equal(t, "created transaction", entry.Message)
	assert.Equal(t, "logger_test.go", entry.File)
}

func TestMinLevelFiltersLowerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, WARN)

	l.Debug("APP", "debug")
	l.Info("APP", "info")
	l.Warn("APP", "warn")
	l.Error("APP", "error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("APP", "ignored")
		l.Close()
	})
}

func TestNewLoggerCreatesDailyFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(Options{Dir: dir, Prefix: "test", MinLevel: INFO})
	defer l.Close()

	l.Info("APP", "hello")
	assert.NotNil(t, l.file)
}
