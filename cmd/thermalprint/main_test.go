package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"-render-only", "-config", "/tmp/c.yaml", "weather"})
	require.NoError(t, err)
	assert.Equal(t, "weather", f.report)
	assert.Equal(t, "/tmp/c.yaml", f.configPath)
	assert.True(t, f.renderOnly)

	f, err = parseFlags([]string{"-daemon", "-listen", ":9000"})
	require.NoError(t, err)
	assert.True(t, f.daemon)
	assert.Equal(t, ":9000", f.listen)

	_, err = parseFlags([]string{"-daemon", "agenda"})
	assert.Error(t, err)
}
