package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobalLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

func TestNew_WritesJSON(t *testing.T) {
	restoreGlobalLevel(t)

	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf})
	logger.Info().Str("component", "test").Msg("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNew_AllLogLevels(t *testing.T) {
	testCases := []struct {
		level         string
		expectedLevel zerolog.Level
		name          string
	}{
		{"debug", zerolog.DebugLevel, "debug"},
		{"info", zerolog.InfoLevel, "info"},
		{"WARN", zerolog.WarnLevel, "upper case"},
		{"error", zerolog.ErrorLevel, "error"},
		{"trace", zerolog.TraceLevel, "trace"},
		{"", zerolog.InfoLevel, "empty defaults to info"},
		{"unknown", zerolog.InfoLevel, "unknown defaults to info"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			restoreGlobalLevel(t)

			New(Config{Level: tc.level, Output: &bytes.Buffer{}})
			assert.Equal(t, tc.expectedLevel, zerolog.GlobalLevel())
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	restoreGlobalLevel(t)

	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_PrettyOutput(t *testing.T) {
	restoreGlobalLevel(t)

	var buf bytes.Buffer
	logger := New(Config{Level: "info", Pretty: true, Output: &buf})
	logger.Info().Msg("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestSetGlobalLogger(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	SetGlobalLogger(zerolog.New(&buf))
	log.Info().Msg("global")
	assert.Contains(t, buf.String(), "global")
}
