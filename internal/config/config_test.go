package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Printer.Columns)
	assert.Equal(t, "Whole day", cfg.Agenda.WholeDayLabel)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
printer:
  device: /dev/ttyUSB0
  columns: 4
agenda:
  ics:
    - id: work
      url: https://example.com/work.ics
weather:
  latitude: 48.85
  longitude: 2.35
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Printer.Device)
	assert.Equal(t, 32, cfg.Printer.Columns, "columns below the table minimum fall back to default")
	assert.Equal(t, 19200, cfg.Printer.BaudRate)
	require.Len(t, cfg.Agenda.ICS, 1)
	assert.Equal(t, "work", cfg.Agenda.ICS[0].ID)
	assert.Equal(t, 48.85, cfg.Weather.Latitude)
	assert.Equal(t, "ca", cfg.Weather.Units)
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvWeatherAPIKey, "secret")
	t.Setenv(EnvPrinterDevice, "/dev/usb/lp0")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "secret", cfg.Weather.APIKey)
	assert.Equal(t, "/dev/usb/lp0", cfg.Printer.Device)
}

func TestSaveRoundTripKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Agenda.PrintEmpty = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Agenda.PrintEmpty)
}
