package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture swaps the package logger for one writing JSON into a buffer.
func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := log
	t.Cleanup(func() { log = prev })

	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestInit_SetsDefault(t *testing.T) {
	prev := log
	defer func() { log = prev }()
	t.Setenv("LOG_LEVEL", "warn")

	Init()

	assert.Same(t, log, Logger())
	assert.Same(t, log, slog.Default())
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelInfo))
}

func TestStructuredHelpers(t *testing.T) {
	tests := []struct {
		name  string
		log   func()
		level string
		msg   string
		attrs map[string]any
	}{
		{
			name:  "admission accepted",
			log:   func() { Info("check-in accepted", "account_id", "member-1", "branch_id", "branch-1", "method", "scan") },
			level: "INFO",
			msg:   "check-in accepted",
			attrs: map[string]any{"account_id": "member-1", "branch_id": "branch-1", "method": "scan"},
		},
		{
			name:  "promotion discarded",
			log:   func() { Warn("discarded waitlist head", "session_id", "s-1", "account_id", "lapsed", "reason", "expired") },
			level: "WARN",
			msg:   "discarded waitlist head",
			attrs: map[string]any{"session_id": "s-1", "reason": "expired"},
		},
		{
			name:  "capacity breach",
			log:   func() { Error("booking count exceeds capacity", "session_id", "s-1", "count", 11, "capacity", 10) },
			level: "ERROR",
			msg:   "booking count exceeds capacity",
			attrs: map[string]any{"count": float64(11), "capacity": float64(10)},
		},
		{
			name:  "sweep",
			log:   func() { Debug("attendance code sweep finished", "deleted_count", 4) },
			level: "DEBUG",
			msg:   "attendance code sweep finished",
			attrs: map[string]any{"deleted_count": float64(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, slog.LevelDebug)

			tt.log()

			entry := decode(t, buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.msg, entry["msg"])
			for k, v := range tt.attrs {
				assert.Equal(t, v, entry[k], k)
			}
		})
	}
}

func TestFormattedHelpers(t *testing.T) {
	buf := capture(t, slog.LevelInfo)
	Infof("Server starting on port %s", "8080")
	assert.Equal(t, "Server starting on port 8080", decode(t, buf)["msg"])

	buf = capture(t, slog.LevelInfo)
	Errorf("Server error: %v", assert.AnError)
	entry := decode(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["msg"], assert.AnError.Error())
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	Debug("attendance code sweep finished", "deleted_count", 0)

	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
