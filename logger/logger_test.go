package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLevelFromEnv(t *testing.T) {
	t.Setenv("BINCACHE_LOG_LEVEL", "trace")
	assert.Equal(t, LevelTrace, GetLevelFromEnv())
	t.Setenv("BINCACHE_LOG_LEVEL", "ERROR")
	assert.Equal(t, LevelError, GetLevelFromEnv())
	t.Setenv("BINCACHE_LOG_LEVEL", "bogus")
	assert.Equal(t, LevelInfo, GetLevelFromEnv())
}

func TestNoopLoggerDiscards(t *testing.T) {
	log := Noop()
	log.With(map[string]interface{}{"a": 1}).Error("nothing happens %d", 42)
}

func TestConsoleLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := &consoleLogger{out: &buf, logLevel: LevelWarn}

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Empty(t, buf.String())

	log.Warn("watch out: %s", "trouble")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "watch out: trouble")
}

func TestConsoleLoggerMetadata(t *testing.T) {
	var buf bytes.Buffer
	base := &consoleLogger{out: &buf, logLevel: LevelTrace}
	log := base.With(map[string]interface{}{"bin": "page", "attempt": 2})

	log.Error("write failed")
	line := buf.String()
	assert.Contains(t, line, "write failed")
	assert.Contains(t, line, "attempt=2")
	assert.Contains(t, line, "bin=page")
	// Metadata keys are sorted for stable output.
	assert.Less(t, strings.Index(line, "attempt="), strings.Index(line, "bin="))
}

func TestTestLoggerCaptures(t *testing.T) {
	log := NewTestLogger()
	child := log.With(map[string]interface{}{"bin": "menu"})

	log.Warn("first %s", "warning")
	child.Error("second")

	entries := log.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Severity)
	assert.Equal(t, "first warning", entries[0].Message)
	assert.Equal(t, "ERROR", entries[1].Severity)
	assert.Equal(t, "menu", entries[1].Metadata["bin"])
}
