package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/logging/adapters"
)

func TestMultiLogger_LevelAndFields(t *testing.T) {
	logger, memory := NewMemoryLogger()
	logger.SetLevel(WarnLevel)

	scoped := logger.WithField("source", "lever").WithFields(map[string]interface{}{"attempt": 2})
	scoped.Info("dropped below threshold")
	scoped.Warn("upstream retry", map[string]interface{}{"attempt": 3})

	entries := memory.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "upstream retry", entries[0].Message)
	assert.Equal(t, "lever", entries[0].Fields["source"])
	assert.Equal(t, 3, entries[0].Fields["attempt"], "call fields override scoped fields")
}

func TestMultiLogger_DerivedLoggersShareLevel(t *testing.T) {
	logger, memory := NewMemoryLogger()
	child := logger.WithField("k", "v")

	logger.SetLevel(ErrorLevel)
	child.Warn("hidden")
	child.Error("shown")

	assert.Len(t, memory.Find("shown"), 1)
	assert.Empty(t, memory.Find("hidden"))
}

func TestMemoryAdapter_Ring(t *testing.T) {
	memory := adapters.NewMemoryAdapter("ring", 2)
	for _, msg := range []string{"a", "b", "c"} {
		require.NoError(t, memory.Write(&LogEntry{Message: msg}))
	}

	entries := memory.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Message)
	assert.Equal(t, "c", entries[1].Message)
}

func TestStdoutAdapter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(adapters.NewStdoutAdapter("out", adapters.StdoutConfig{Format: "json", Writer: &buf})))

	logger.Error("source failed", map[string]interface{}{"source": "ashby", "error": errors.New("status 503")})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "source failed", line["msg"])
	assert.Equal(t, "ashby", line["source"])
	assert.Equal(t, "status 503", line["error"])
}

func TestStdoutAdapter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(adapters.NewStdoutAdapter("out", adapters.StdoutConfig{Format: "text", Writer: &buf})))

	logger.Info("aggregate completed", map[string]interface{}{"total": 12})

	out := buf.String()
	assert.True(t, strings.Contains(out, "aggregate completed"), out)
	assert.True(t, strings.Contains(out, "total=12"), out)
}

func TestManager_Initialize(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "debug"
	cfg.Logging.Adapters = []config.LogAdapterConfig{
		{Name: "ring", Type: "memory", Enabled: true, Options: map[string]interface{}{"capacity": 8}},
		{Name: "off", Type: "stdout", Enabled: false},
	}

	manager := NewManager()
	require.NoError(t, manager.Initialize(cfg))

	logger := manager.GetLogger().(*MultiLogger)
	assert.Equal(t, DebugLevel, logger.GetLevel())
	assert.Equal(t, []string{"ring"}, logger.Adapters())

	cfg.Logging.Adapters = []config.LogAdapterConfig{{Name: "bad", Type: "betterstack", Enabled: true}}
	assert.Error(t, NewManager().Initialize(cfg))
}
