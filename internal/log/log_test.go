package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	Info("hidden")
	Warn("missing model", "key", "snow-heavy")
	Error("print failed", errors.New("boom"), "device", "/dev/serial0")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] missing model key=snow-heavy")
	assert.Contains(t, out, "[ERROR] print failed err=boom device=/dev/serial0")
}

func TestQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("event", "title", "Team sync", "odd")
	assert.Contains(t, buf.String(), `title="Team sync"`)
	assert.NotContains(t, buf.String(), "odd")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
