package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the YAML file. They are
// typically provided through a .env file next to the binary.
const (
	EnvWeatherAPIKey = "THERMALPRINT_WEATHER_API_KEY"
	EnvPrinterDevice = "THERMALPRINT_PRINTER_DEVICE"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// PrinterConfig describes the serial thermal printer.
type PrinterConfig struct {
	// Device is the serial device the printer is attached to.
	Device string `yaml:"device" json:"device"`
	// BaudRate paces writes; the printer has no flow control.
	BaudRate int `yaml:"baud_rate" json:"baud_rate"`
	// Columns is the number of characters per line at normal size.
	Columns int `yaml:"columns" json:"columns"`
	// HeatTime is sent with the heating parameters on init (ESC 7).
	HeatTime int `yaml:"heat_time" json:"heat_time"`
}

// AgendaConfig controls the daily calendar report.
type AgendaConfig struct {
	Timezone      string      `yaml:"timezone" json:"timezone"`
	ICS           []ICSConfig `yaml:"ics" json:"ics"`
	CacheDir      string      `yaml:"cache_dir" json:"cache_dir"`
	HeaderImage   string      `yaml:"header_image" json:"header_image"`
	Title         string      `yaml:"title" json:"title"`
	Footer        string      `yaml:"footer" json:"footer"`
	WholeDayLabel string      `yaml:"whole_day_label" json:"whole_day_label"`
	PrintEmpty    bool        `yaml:"print_empty" json:"print_empty"`
	Schedule      string      `yaml:"schedule" json:"schedule"`
}

// WeatherConfig controls the daily weather report.
type WeatherConfig struct {
	APIKey     string  `yaml:"api_key" json:"-"`
	Endpoint   string  `yaml:"endpoint" json:"endpoint"`
	Latitude   float64 `yaml:"latitude" json:"latitude"`
	Longitude  float64 `yaml:"longitude" json:"longitude"`
	Units      string  `yaml:"units" json:"units"`
	Lang       string  `yaml:"lang" json:"lang"`
	ModelsPath string  `yaml:"models_path" json:"models_path"`
	Schedule   string  `yaml:"schedule" json:"schedule"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the preview server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the preview HTTP listen address (daemon mode only).
	Listen   string `yaml:"listen" json:"listen"`
	LogLevel string `yaml:"log_level" json:"log_level"`

	Printer PrinterConfig `yaml:"printer" json:"printer"`
	Agenda  AgendaConfig  `yaml:"agenda" json:"agenda"`
	Weather WeatherConfig `yaml:"weather" json:"weather"`

	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
		Printer: PrinterConfig{
			Device:   "/dev/serial0",
			BaudRate: 19200,
			Columns:  32,
			HeatTime: 80,
		},
		Agenda: AgendaConfig{
			Timezone:      "Europe/Paris",
			ICS:           []ICSConfig{},
			CacheDir:      "/var/lib/thermalprint/ics-cache",
			Title:         "Agenda",
			Footer:        "Have a nice day :)",
			WholeDayLabel: "Whole day",
			Schedule:      "0 7 * * *",
		},
		Weather: WeatherConfig{
			Endpoint:   "https://api.pirateweather.net",
			Units:      "ca",
			Lang:       "fr",
			ModelsPath: "/etc/thermalprint/models.yaml",
			Schedule:   "5 7 * * *",
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	if c.Printer.Device == "" {
		c.Printer.Device = def.Printer.Device
	}
	if c.Printer.BaudRate <= 0 {
		c.Printer.BaudRate = def.Printer.BaudRate
	}
	// The table renderer needs room for two borders and two padding spaces.
	if c.Printer.Columns < 8 {
		c.Printer.Columns = def.Printer.Columns
	}
	if c.Printer.HeatTime <= 0 {
		c.Printer.HeatTime = def.Printer.HeatTime
	}

	if c.Agenda.Timezone == "" {
		c.Agenda.Timezone = def.Agenda.Timezone
	}
	if c.Agenda.ICS == nil {
		c.Agenda.ICS = []ICSConfig{}
	}
	if c.Agenda.CacheDir == "" {
		c.Agenda.CacheDir = def.Agenda.CacheDir
	}
	if c.Agenda.Title == "" {
		c.Agenda.Title = def.Agenda.Title
	}
	if c.Agenda.Footer == "" {
		c.Agenda.Footer = def.Agenda.Footer
	}
	if c.Agenda.WholeDayLabel == "" {
		c.Agenda.WholeDayLabel = def.Agenda.WholeDayLabel
	}
	if c.Agenda.Schedule == "" {
		c.Agenda.Schedule = def.Agenda.Schedule
	}

	if c.Weather.Endpoint == "" {
		c.Weather.Endpoint = def.Weather.Endpoint
	}
	if c.Weather.Units == "" {
		c.Weather.Units = def.Weather.Units
	}
	if c.Weather.Lang == "" {
		c.Weather.Lang = def.Weather.Lang
	}
	if c.Weather.ModelsPath == "" {
		c.Weather.ModelsPath = def.Weather.ModelsPath
	}
	if c.Weather.Schedule == "" {
		c.Weather.Schedule = def.Weather.Schedule
	}
}

// ApplyEnv overrides secrets and host-specific values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvWeatherAPIKey); v != "" {
		c.Weather.APIKey = v
	}
	if v := os.Getenv(EnvPrinterDevice); v != "" {
		c.Printer.Device = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Caller decides whether a read-only location is fatal.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".thermalprint-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is shorthand for Save(path, c).
func (c *Config) Save(path string) error {
	return Save(path, c)
}
