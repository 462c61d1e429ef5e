// Package config handles configuration loading for the inkgrid server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/pkg/hexcolor"
)

// Config represents the server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Cache   CacheConfig   `yaml:"cache"`
	Render  RenderConfig  `yaml:"render"`
	Image   ImageConfig   `yaml:"image"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	MaxUploadMB int      `yaml:"max_upload_mb"`
}

// SessionConfig contains per-user session settings.
type SessionConfig struct {
	MaxSessions int `yaml:"max_sessions"`
	TTLMinutes  int `yaml:"ttl_minutes"`
	DefaultCols int `yaml:"default_cols"`
	DefaultRows int `yaml:"default_rows"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	PreviewSizeMB     int `yaml:"preview_size_mb"`
	PreviewTTLMinutes int `yaml:"preview_ttl_minutes"`
	ReportCacheSize   int `yaml:"report_cache_size"`
}

// RenderConfig contains rendering settings.
type RenderConfig struct {
	CellSize   int    `yaml:"cell_size"`
	Gap        int    `yaml:"gap"`
	SwatchSize int    `yaml:"swatch_size"`
	LineColor  string `yaml:"line_color"`
}

// ImageConfig contains decoding limits.
type ImageConfig struct {
	MaxPixels int `yaml:"max_pixels"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			MaxUploadMB: 20,
		},
		Session: SessionConfig{
			MaxSessions: 1000,
			TTLMinutes:  60,
			DefaultCols: grid.DefaultSpec.Cols,
			DefaultRows: grid.DefaultSpec.Rows,
		},
		Cache: CacheConfig{
			PreviewSizeMB:     128,
			PreviewTTLMinutes: 10,
			ReportCacheSize:   256,
		},
		Render: RenderConfig{
			CellSize:   24,
			Gap:        1,
			SwatchSize: 128,
			LineColor:  "#ff0000",
		},
		Image: ImageConfig{
			MaxPixels: 64 * 1024 * 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultSpec returns the configured draft grid of new sessions.
func (c *Config) DefaultSpec() grid.Spec {
	return grid.Spec{Cols: c.Session.DefaultCols, Rows: c.Session.DefaultRows}
}

// LineColor returns the parsed overlay line colour.
func (c *Config) LineColor() hexcolor.RGB {
	rgb, err := hexcolor.Parse(c.Render.LineColor)
	if err != nil {
		return hexcolor.RGB{R: 255}
	}
	return rgb
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if err := c.DefaultSpec().Validate(); err != nil {
		return fmt.Errorf("session default grid: %w", err)
	}
	if _, err := hexcolor.Parse(c.Render.LineColor); err != nil {
		return fmt.Errorf("render.line_color: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = defaults.Server.MaxUploadMB
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = defaults.Session.MaxSessions
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = defaults.Session.TTLMinutes
	}
	if cfg.Session.DefaultCols == 0 {
		cfg.Session.DefaultCols = defaults.Session.DefaultCols
	}
	if cfg.Session.DefaultRows == 0 {
		cfg.Session.DefaultRows = defaults.Session.DefaultRows
	}
	if cfg.Cache.PreviewSizeMB == 0 {
		cfg.Cache.PreviewSizeMB = defaults.Cache.PreviewSizeMB
	}
	if cfg.Cache.PreviewTTLMinutes == 0 {
		cfg.Cache.PreviewTTLMinutes = defaults.Cache.PreviewTTLMinutes
	}
	if cfg.Cache.ReportCacheSize == 0 {
		cfg.Cache.ReportCacheSize = defaults.Cache.ReportCacheSize
	}
	if cfg.Render.CellSize == 0 {
		cfg.Render.CellSize = defaults.Render.CellSize
	}
	if cfg.Render.SwatchSize == 0 {
		cfg.Render.SwatchSize = defaults.Render.SwatchSize
	}
	if cfg.Render.LineColor == "" {
		cfg.Render.LineColor = defaults.Render.LineColor
	}
	if cfg.Image.MaxPixels == 0 {
		cfg.Image.MaxPixels = defaults.Image.MaxPixels
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}
