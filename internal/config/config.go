package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://api.mediahub.example/v1"
	DefaultAPIKey      = "mh_live_3f9c1b7d2e8a4c60"
	DefaultUserAgent   = "mediapicker/1.0"
	DefaultTimeout     = 10 * time.Second
	DefaultPerPage     = 24
	MaxPerPage         = 50
	DefaultTileCeiling = 512
	DefaultCacheTTL    = 90 * time.Second
	DefaultRecentCap   = 50
	DefaultRPS         = 5.0
	DefaultBurst       = 5
	DefaultLogLevel    = "info"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	PerPage           int           `yaml:"per_page"`
	TileCeiling       int           `yaml:"tile_ceiling"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	RecentCap         int           `yaml:"recent_cap"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	LogLevel          string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		APIKey:            DefaultAPIKey,
		UserAgent:         DefaultUserAgent,
		Timeout:           DefaultTimeout,
		PerPage:           DefaultPerPage,
		TileCeiling:       DefaultTileCeiling,
		CacheTTL:          DefaultCacheTTL,
		RecentCap:         DefaultRecentCap,
		RequestsPerSecond: DefaultRPS,
		Burst:             DefaultBurst,
		LogLevel:          DefaultLogLevel,
	}
}

// Load overlays the YAML file at path on top of Default. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is empty", ErrInvalid)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: api_key is empty", ErrInvalid)
	}
	if c.PerPage < 1 || c.PerPage > MaxPerPage {
		return fmt.Errorf("%w: per_page must be within 1..%d, got %d", ErrInvalid, MaxPerPage, c.PerPage)
	}
	if c.TileCeiling <= 0 {
		return fmt.Errorf("%w: tile_ceiling must be positive", ErrInvalid)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%w: cache_ttl must be positive", ErrInvalid)
	}
	if c.RecentCap <= 0 {
		return fmt.Errorf("%w: recent_cap must be positive", ErrInvalid)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout is negative", ErrInvalid)
	}
	return nil
}
