package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestInitJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	recorderLog := Component("recorder")
	recorderLog.Info().Str("subject_id", "x1").Msg("visit recorded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "recorder", entry["component"])
	require.Equal(t, "x1", entry["subject_id"])
	require.Equal(t, "visit recorded", entry["message"])
}

func TestInitRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "WARN", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("hidden")
	Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	require.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("request_id", "r1").Logger()
	ctx := WithContext(context.Background(), logger)

	ctxLog := FromContext(ctx)
	ctxLog.Info().Msg("hi")
	require.Contains(t, buf.String(), `"request_id":"r1"`)
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "visitwatch.log")
	w, closer, err := Output(path, nil)
	require.NoError(t, err)

	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "line\n", string(data))
}

func TestOutputFallback(t *testing.T) {
	var buf bytes.Buffer
	w, closer, err := Output("  ", &buf)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	_, _ = w.Write([]byte("x"))
	require.True(t, strings.HasPrefix(buf.String(), "x"))
}
