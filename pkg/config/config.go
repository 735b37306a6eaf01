// Package config handles configuration for the page-object runner.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/inji-pages/pkg/core"
	"github.com/devicelab-dev/inji-pages/pkg/locator"
	"github.com/devicelab-dev/inji-pages/pkg/page"
	"github.com/devicelab-dev/inji-pages/pkg/page/receivecard"
)

// Environment variables read by ApplyEnv.
const (
	EnvAppiumURL     = "APPIUM_URL"
	EnvFindTimeoutMs = "APPIUM_FIND_TIMEOUT_MS"
	EnvLanguage      = "RECEIVE_CARD_LANGUAGE"
)

// DefaultAppiumURL is used when neither config nor env sets a server.
const DefaultAppiumURL = "http://127.0.0.1:4723"

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Appium session
	AppiumURL    string                 `yaml:"appiumUrl"`
	Capabilities map[string]interface{} `yaml:"capabilities"`

	// Element waits
	FindTimeoutMs  int `yaml:"findTimeoutMs"`
	PollIntervalMs int `yaml:"pollIntervalMs"`

	// Page settings
	Language string                 `yaml:"language"` // english, filipino
	Locators map[string]locator.Set `yaml:"locators"` // screen -> element name -> locator

	LogFile string `yaml:"logFile"`
}

// Default returns a config with defaults filled in.
func Default() *Config {
	return &Config{
		AppiumURL:      DefaultAppiumURL,
		FindTimeoutMs:  int(page.DefaultTimeout / time.Millisecond),
		PollIntervalMs: int(page.DefaultPollInterval / time.Millisecond),
	}
}

// Load loads configuration from a file. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("parse %s", path)).WithCause(err)
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

// LoadEnv loads .env files into the process environment. Missing files are skipped;
// variables already set are not overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAppiumURL); v != "" {
		c.AppiumURL = v
	}
	if v := os.Getenv(EnvFindTimeoutMs); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s=%q is not a number", EnvFindTimeoutMs, v))
		}
		c.FindTimeoutMs = ms
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		c.Language = v
	}
	return nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.AppiumURL == "" {
		return core.ErrInvalidConfig.WithMessage("appiumUrl is required")
	}
	if c.FindTimeoutMs < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("findTimeoutMs must be >= 0, got %d", c.FindTimeoutMs))
	}
	if c.PollIntervalMs < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("pollIntervalMs must be >= 0, got %d", c.PollIntervalMs))
	}
	if _, err := receivecard.ParseLanguage(c.Language); err != nil {
		return err
	}
	return nil
}

// FindTimeout returns the element wait as a duration.
func (c *Config) FindTimeout() time.Duration {
	return time.Duration(c.FindTimeoutMs) * time.Millisecond
}

// PollInterval returns the delay between element lookups.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// HelperOptions converts wait settings to page.Base options.
func (c *Config) HelperOptions() []page.Option {
	return []page.Option{
		page.WithTimeout(c.FindTimeout()),
		page.WithPollInterval(c.PollInterval()),
	}
}

// ScreenLocators returns locator overrides for a screen, nil if none.
func (c *Config) ScreenLocators(screen string) locator.Set {
	return c.Locators[screen]
}
