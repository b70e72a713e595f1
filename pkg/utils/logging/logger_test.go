package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
	"github.com/secmon-lab/guildsweep/pkg/utils/logging"
)

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		input string
		level slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			gt.Equal(t, logging.ParseLogLevel(tc.input), tc.level)
		})
	}
}

func TestParseFormat(t *testing.T) {
	format, err := logging.ParseFormat("JSON")
	gt.NoError(t, err)
	gt.Equal(t, format, logging.FormatJSON)

	format, err = logging.ParseFormat("")
	gt.NoError(t, err)
	gt.Equal(t, format, logging.FormatAuto)

	_, err = logging.ParseFormat("xml")
	gt.Error(t, err)
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	var entry map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &entry)).Required()
	return entry
}

func TestLoggerRedactsCredentials(t *testing.T) {
	t.Run("credential keys", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLoggerWithFormat(slog.LevelInfo, &buf, logging.FormatJSON)

		logger.Info("incoming",
			"X-Bot-Token", "raw-header-secret",
			"authorization", "Bot raw-auth-secret",
			"guild_id", "G1",
		)

		entry := decodeEntry(t, &buf)
		gt.Equal(t, entry["X-Bot-Token"], any(logging.Redacted))
		gt.Equal(t, entry["authorization"], any(logging.Redacted))
		gt.Equal(t, entry["guild_id"], any("G1"))
		gt.False(t, bytes.Contains(buf.Bytes(), []byte("secret")))
	})

	t.Run("nested and bound attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLoggerWithFormat(slog.LevelInfo, &buf, logging.FormatJSON).
			With("token", "bound-secret")

		logger.Info("request", slog.Group("headers", slog.String("x-bot-token", "nested-secret")))

		entry := decodeEntry(t, &buf)
		gt.Equal(t, entry["token"], any(logging.Redacted))
		headers, ok := entry["headers"].(map[string]any)
		gt.True(t, ok)
		gt.Equal(t, headers["x-bot-token"], any(logging.Redacted))
		gt.False(t, bytes.Contains(buf.Bytes(), []byte("secret")))
	})

	t.Run("bot token type under any key", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLoggerWithFormat(slog.LevelInfo, &buf, logging.FormatJSON)

		logger.Info("connecting", "credential", types.BotToken("very-secret"))

		entry := decodeEntry(t, &buf)
		gt.Equal(t, entry["credential"], any("[REDACTED]"))
		gt.False(t, bytes.Contains(buf.Bytes(), []byte("very-secret")))
	})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithFormat(slog.LevelWarn, &buf, logging.FormatJSON)

	logger.Info("hidden")
	gt.Equal(t, buf.Len(), 0)

	logger.Warn("shown")
	gt.Equal(t, decodeEntry(t, &buf)["msg"], any("shown"))
}

func TestAutoFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(slog.LevelInfo, &buf)
	logger.Info("ready")

	gt.Equal(t, decodeEntry(t, &buf)["msg"], any("ready"))
}
