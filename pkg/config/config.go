package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CONSOLE_"

// Config holds the console client settings. Precedence, lowest first:
// defaults, YAML file, environment.
type Config struct {
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RateLimit     float64       `yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst         int           `yaml:"burst" env:"BURST"`
	Locale        string        `yaml:"locale" env:"LOCALE"`
	SessionPath   string        `yaml:"session_path" env:"SESSION_PATH"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat     string        `yaml:"log_format" env:"LOG_FORMAT"`
	ChartTheme    string        `yaml:"chart_theme" env:"CHART_THEME"`
	ChartCacheTTL time.Duration `yaml:"chart_cache_ttl" env:"CHART_CACHE_TTL"`
	WatchInterval time.Duration `yaml:"watch_interval" env:"WATCH_INTERVAL"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:       "http://localhost:3000",
		Timeout:       15 * time.Second,
		RateLimit:     5,
		Burst:         5,
		Locale:        "pt-BR",
		SessionPath:   defaultSessionPath(),
		LogLevel:      "warn",
		LogFormat:     "text",
		ChartTheme:    "westeros",
		ChartCacheTTL: time.Minute,
		WatchInterval: 30 * time.Second,
	}
}

// Load reads path (optional; a missing file is not an error) and then the
// CONSOLE_* environment on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields the client cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("config: base_url is required")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.RateLimit < 0 {
		return errors.New("config: rate_limit must not be negative")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".access-console-session.yaml"
	}
	return filepath.Join(dir, "access-console", "session.yaml")
}
