package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ibeckermayer/elongatd/internal/types"
)

const appName = "elongatd"

// Environment overrides
const (
	EnvConfigPath = "ELONGATD_CONFIG"
	EnvAPIKey     = "ELONGATD_API_KEY"
)

// LLM providers accepted by [blogify] llm_provider
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds all application configuration
type Config struct {
	Version int           `toml:"version"`
	Capture CaptureConfig `toml:"capture"`
	Store   StoreConfig   `toml:"store"`
	Blogify BlogifyConfig `toml:"blogify"`
	Notify  NotifyConfig  `toml:"notify"`
	Watch   WatchConfig   `toml:"watch"`
	Logging LoggingConfig `toml:"logging"`
}

type CaptureConfig struct {
	Headless       bool   `toml:"headless"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CookieFile     string `toml:"cookie_file"`
}

type StoreConfig struct {
	DBPath        string `toml:"db_path"`
	CachePayloads bool   `toml:"cache_payloads"`
}

type BlogifyConfig struct {
	Enabled     bool   `toml:"enabled"`
	LLMProvider string `toml:"llm_provider"`
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	Model       string `toml:"model"`
	MaxTokens   int    `toml:"max_tokens"`

	// Prices in cents per million tokens, used to record the cost of each rewrite
	InputCentsPerMTok  float64 `toml:"input_cents_per_mtok"`
	OutputCentsPerMTok float64 `toml:"output_cents_per_mtok"`
}

// Pricing returns the configured model prices
func (c BlogifyConfig) Pricing() types.Pricing {
	return types.Pricing{
		InputCentsPerMTok:  c.InputCentsPerMTok,
		OutputCentsPerMTok: c.OutputCentsPerMTok,
	}
}

type NotifyConfig struct {
	Enabled  bool   `toml:"enabled"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
	SiteURL  string `toml:"site_url"`
}

type WatchConfig struct {
	StatusURLs    []string `toml:"status_urls"`
	IntervalHours int      `toml:"interval_hours"`
	Timezone      string   `toml:"timezone"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Capture: CaptureConfig{
			Headless:       true,
			TimeoutSeconds: 60,
		},
		Store: StoreConfig{
			CachePayloads: true,
		},
		Blogify: BlogifyConfig{
			Enabled:     false,
			LLMProvider: ProviderAnthropic,
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,

			InputCentsPerMTok:  300,
			OutputCentsPerMTok: 1500,
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		Watch: WatchConfig{
			StatusURLs:    []string{},
			IntervalHours: 6,
			Timezone:      "UTC",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// CacheDir returns the directory for step outputs and the default database
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// ConfigPath returns the full path to the config file. ELONGATD_CONFIG wins
// over the platform default.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from disk. A missing file yields the defaults and is
// written out so the user has something to edit.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		if err := cfg.SaveTo(path); err != nil {
			return nil, err
		}
		return cfg, cfg.resolve()
	}
	return cfg, err
}

// LoadFile reads config from path. Keys absent from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve applies environment overrides and fills derived paths
func (c *Config) resolve() error {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Blogify.APIKey = key
	}

	if c.Capture.CookieFile == "" {
		dir, err := ConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve config dir: %w", err)
		}
		c.Capture.CookieFile = filepath.Join(dir, "cookies.json")
	}

	if c.Store.DBPath == "" {
		dir, err := CacheDir()
		if err != nil {
			return fmt.Errorf("failed to resolve cache dir: %w", err)
		}
		c.Store.DBPath = filepath.Join(dir, appName+".db")
	}

	return c.Validate()
}

// Validate checks values that would otherwise fail deep inside a component
func (c *Config) Validate() error {
	switch c.Blogify.LLMProvider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm_provider %q (want %q or %q)", c.Blogify.LLMProvider, ProviderAnthropic, ProviderOpenAI)
	}
	if c.Capture.TimeoutSeconds <= 0 {
		return fmt.Errorf("capture.timeout_seconds must be positive, got %d", c.Capture.TimeoutSeconds)
	}
	if c.Watch.IntervalHours <= 0 {
		return fmt.Errorf("watch.interval_hours must be positive, got %d", c.Watch.IntervalHours)
	}
	return nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
