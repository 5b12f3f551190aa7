package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, Format: "json", Output: &buf})

	logger.Info("pipeline.started", "session_id", "s1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline.started", entry["msg"])
	assert.Equal(t, "s1", entry["session_id"])
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, Format: "text", Output: &buf})

	logger.Info("pipeline.started", "session_id", "s1")

	out := buf.String()
	assert.Contains(t, out, "pipeline.started")
	assert.Contains(t, out, "session_id=s1")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelWarn, Format: "text", Output: &buf})

	logger.Debug("dropped.debug")
	logger.Info("dropped.info")
	logger.Warn("kept.warn")
	logger.Error("kept.error")

	out := buf.String()
	assert.NotContains(t, out, "dropped.debug")
	assert.NotContains(t, out, "dropped.info")
	assert.Contains(t, out, "kept.warn")
	assert.Contains(t, out, "kept.error")
}

func TestRunLoggerContextFields(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRunLogger(&Config{Level: LevelDebug, Format: "json", Output: &buf}).
		WithComponent("orchestrator").
		WithSession("sess-1", "run-1")

	rl.Info("batch.started", "batch", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "orchestrator", entry["component"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, float64(2), entry["batch"])
}

func TestRunLoggerCloningDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewRunLogger(&Config{Level: LevelInfo, Format: "json", Output: &buf})
	child := parent.WithComponent("worker")

	require.NotSame(t, parent, child)

	parent.Info("parent.msg")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasComponent := entry["component"]
	assert.False(t, hasComponent)
}

func TestRunLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRunLogger(&Config{Level: LevelError, Format: "text", Output: &buf})

	rl.Debug("dropped")
	rl.Info("dropped")
	rl.Warn("dropped")
	rl.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestRunLoggerLogToolCall(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRunLogger(&Config{Level: LevelInfo, Format: "json", Output: &buf})

	rl.LogToolCall("web_search", 150*time.Millisecond, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool call completed", entry["msg"])
	assert.Equal(t, "web_search", entry["tool_name"])
	assert.Equal(t, true, entry["success"])

	buf.Reset()
	rl.LogToolCall("web_scrape", 30*time.Millisecond, errors.New("timeout"))

	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool call failed", entry["msg"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "timeout", entry["error"])
}

func TestRunLoggerLogModelCall(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRunLogger(&Config{Level: LevelInfo, Format: "json", Output: &buf})

	rl.LogModelCall("gpt-4o", 1234, 900*time.Millisecond, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "model call completed", entry["msg"])
	assert.Equal(t, "gpt-4o", entry["model"])
	assert.Equal(t, float64(1234), entry["token_count"])

	buf.Reset()
	rl.LogModelCall("gpt-4o", 0, time.Millisecond, errors.New("rate limited"))

	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "model call failed", entry["msg"])
	assert.Equal(t, "rate limited", entry["error"])
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}
	logger.Debug("x")
	logger.Info("x", "k", "v")
	logger.Warn("x")
	logger.Error("x")
}
