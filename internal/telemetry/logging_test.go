package telemetry_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-portal-client/internal/telemetry"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		in   string
		want slog.Level
	}{
		"debug":   {in: "debug", want: slog.LevelDebug},
		"upper":   {in: "WARN", want: slog.LevelWarn},
		"empty":   {in: "", want: slog.LevelInfo},
		"unknown": {in: "verbose", want: slog.LevelInfo},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, telemetry.ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := telemetry.NewLogger(&buf, "info", "json")

	l.Debug("hidden")
	l.Info("session: started", "quiz_id", "QZ1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "session: started", rec["msg"])
	assert.Equal(t, "QZ1", rec["quiz_id"])
}
