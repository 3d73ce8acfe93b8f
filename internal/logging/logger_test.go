package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(log.Writer())

	l := New("cache")
	l.Error("eviction failed: %s", "disk full")

	out := buf.String()
	if !strings.Contains(out, "[ERROR] [cache] eviction failed: disk full") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(log.Writer())

	l := New("playlist")
	// Default level is Info unless DEBUG/LOG_LEVEL says otherwise,
	// so Debug output is only expected when debug is enabled.
	l.Debug("cursor at %d", 3)

	if !IsDebugEnabled() && buf.Len() > 0 {
		t.Errorf("debug output emitted at level %s: %q", GetLevel(), buf.String())
	}
}
