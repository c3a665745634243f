package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSlogLoggerLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.Debug("hidden")
	log.Info("shown", String("tone", "piano"), Int("midi", 60))
	log.Log(LogLevelWarn, "warned")
	log.Log(LogLevelTrace, "hidden too")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "piano", lines[0]["tone"])
	assert.InDelta(t, 60, lines[0]["midi"], 0)
	assert.Equal(t, "WARN", lines[1]["level"])
}

func TestModuleScopingAndFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	root := NewSlogLogger(buf, LogLevelDebug, time.UTC)
	catalog := root.Module("catalog").With(String("tone", "strings"))
	child := catalog.Module("rebuild")

	child.Debug("map rebuilt", Float64("score", 1.23456))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "catalog.rebuild", lines[0]["module"])
	assert.Equal(t, "strings", lines[0]["tone"])
	assert.InDelta(t, 1.235, lines[0]["score"], 1e-9)
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, nil)

	ctx := WithTraceID(context.Background(), "req-42")
	log.WithContext(ctx).Info("request")
	log.WithContext(context.Background()).Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "req-42", lines[0]["trace_id"])
	assert.NotContains(t, lines[1], "trace_id")
}

func TestTextHandlerFormat(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: true, Level: "debug"},
		FileOutput:   &FileOutput{Enabled: false},
	}, buf)
	require.NoError(t, err)

	cl.Module("resolver").Info("pitch resolved", String("method", "filename"), String("file", "my file.wav"))

	out := buf.String()
	assert.Contains(t, out, "INFO  [resolver] pitch resolved")
	assert.Contains(t, out, "method=filename")
	assert.Contains(t, out, `file="my file.wav"`)
}

func TestModuleLevelOverride(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Console:      &ConsoleOutput{Enabled: true, Level: "trace"},
		FileOutput:   &FileOutput{Enabled: false},
		ModuleLevels: map[string]string{"datastore": "trace"},
	}, buf)
	require.NoError(t, err)

	cl.Module("datastore").Trace("sql query")
	cl.Module("catalog").Debug("suppressed")

	out := buf.String()
	assert.Contains(t, out, "TRACE [datastore] sql query")
	assert.NotContains(t, out, "suppressed")
}

func TestFileOutputWritesJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "tonebank.log")
	cl, err := newCentralLogger(&LoggingConfig{
		Console:    &ConsoleOutput{Enabled: false},
		FileOutput: &FileOutput{Enabled: true, Path: path, Level: "info"},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cl.Module("storage").Info("copied", String("dest", "000_c4.wav"))
	require.NoError(t, cl.Close())
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "storage", entry["module"])
	assert.Equal(t, "000_c4.wav", entry["dest"])
}

func TestInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := newCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"}, &bytes.Buffer{})
	require.Error(t, err)
}
