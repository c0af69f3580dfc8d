package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

func decodeEntries(t *testing.T, buf *bytes.Buffer) []logEntry {
	t.Helper()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry logEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerWritesStructuredEntries(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf, RunID: "run-1234"})
	require.NoError(t, err)

	log.Info("connected to array")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "info", entries[0]["level"])
	require.Equal(t, "connected to array", entries[0]["message"])
	require.Equal(t, "run-1234", entries[0]["run_id"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.Debug("should be suppressed")
	log.Warn("should appear")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "warn", entries[0]["level"])
}

func TestLoggerInvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestLoggerWithTaskFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "debug", Writer: buf})
	require.NoError(t, err)

	log.WithTask("vol_db01", "volume").Info("evaluating")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "vol_db01", entries[0]["task_id"])
	require.Equal(t, "volume", entries[0]["task_type"])
}

func TestLoggerErrorIncludesError(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.Error(fmt.Errorf("connection refused"), "login failed")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "connection refused", entries[0]["error"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var log *Logger
	log.Info("no panic")
	log.Error(fmt.Errorf("x"), "no panic")
	require.Nil(t, log.WithFields(map[string]any{"k": "v"}))
	require.Nil(t, log.WithTask("a", "b"))
}
