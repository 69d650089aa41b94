package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Info().Str("component", "test").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, ServiceName, line["service"])
	require.Equal(t, "test", line["component"])
	require.Equal(t, "hello", line["message"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "chatty", "json")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Debug().Msg("hidden")
	require.Zero(t, buf.Len())

	log.Info().Msg("shown")
	require.NotZero(t, buf.Len())
}
