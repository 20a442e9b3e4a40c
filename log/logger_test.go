package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponentAddsField(t *testing.T) {
	buf := &bytes.Buffer{}
	Configure(Config{Level: "debug", Output: buf})

	l := WithComponent("engine")
	l.Info().Str("path", "book.pdf").Msg("verified")

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "book.pdf", entry["path"])
	assert.Equal(t, "verified", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestConfigureLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	Configure(Config{Level: "warn", Output: buf})

	l := Base()
	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigureFallsBackToEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	buf := &bytes.Buffer{}
	Configure(Config{Output: buf})

	l := Base()
	l.Warn().Msg("hidden")
	assert.Zero(t, buf.Len())
}
