package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("opened", "path", "app.db")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "opened", entry["msg"])
	assert.Equal(t, "app.db", entry["path"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "text"}, &buf)
	logger.Debug("exec", "query", "SELECT 1;")
	assert.Contains(t, buf.String(), `query="SELECT 1;"`)
}

func TestNew_PrettyWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "pretty"}, &buf)
	logger.Info("hidden")
	logger.Warn("careful", "model", "tasks")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "model=tasks")
	assert.NotContains(t, out, "\x1b[", "no color codes outside a terminal")
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("pretty"))
	assert.True(t, ValidFormat("JSON"))
	assert.False(t, ValidFormat("xml"))
}
