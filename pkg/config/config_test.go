package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/inji-pages/pkg/core"
	"github.com/devicelab-dev/inji-pages/pkg/locator"
	"github.com/devicelab-dev/inji-pages/pkg/page"
	"github.com/devicelab-dev/inji-pages/pkg/page/receivecard"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
appiumUrl: http://appium.local:4723/wd/hub
capabilities:
  platformName: Android
  appium:automationName: UiAutomator2
  appium:settings:
    waitForIdleTimeout: 100
findTimeoutMs: 5000
pollIntervalMs: 250
language: filipino
logFile: run.log
locators:
  receiveCard:
    allow:
      id: com.android.permissioncontroller:id/permission_allow_button
    qrCode:
      xpath: //android.widget.ImageView
      pick: last
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AppiumURL != "http://appium.local:4723/wd/hub" {
		t.Errorf("expected appiumUrl, got %s", cfg.AppiumURL)
	}
	if cfg.Capabilities["platformName"] != "Android" {
		t.Errorf("expected platformName Android, got %v", cfg.Capabilities["platformName"])
	}
	settings, ok := cfg.Capabilities["appium:settings"].(map[string]interface{})
	if !ok || settings["waitForIdleTimeout"] != 100 {
		t.Errorf("expected nested appium:settings, got %v", cfg.Capabilities["appium:settings"])
	}
	if cfg.FindTimeout() != 5*time.Second {
		t.Errorf("expected 5s find timeout, got %v", cfg.FindTimeout())
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Errorf("expected 250ms poll interval, got %v", cfg.PollInterval())
	}
	if cfg.Language != "filipino" {
		t.Errorf("expected language filipino, got %s", cfg.Language)
	}
	if cfg.LogFile != "run.log" {
		t.Errorf("expected logFile run.log, got %s", cfg.LogFile)
	}

	overrides := cfg.ScreenLocators(receivecard.Screen)
	if overrides[receivecard.ElemAllow].Strategy != locator.StrategyID {
		t.Errorf("expected id override for allow, got %+v", overrides[receivecard.ElemAllow])
	}
	if overrides[receivecard.ElemQrCode].Pick != locator.PickLast {
		t.Errorf("expected pick last for qrCode, got %+v", overrides[receivecard.ElemQrCode])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("language: en\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppiumURL != DefaultAppiumURL {
		t.Errorf("expected default appiumUrl, got %s", cfg.AppiumURL)
	}
	if cfg.FindTimeoutMs != 10000 || cfg.PollIntervalMs != 200 {
		t.Errorf("expected default waits, got %d/%d", cfg.FindTimeoutMs, cfg.PollIntervalMs)
	}
	if cfg.ScreenLocators(receivecard.Screen) != nil {
		t.Error("expected no overrides")
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
locators:
  receiveCard:
    allow:
      label: no strategy
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("appiumUrl: http://yml:4723\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppiumURL != "http://yml:4723" {
		t.Errorf("expected config.yml to be used, got %s", cfg.AppiumURL)
	}

	// config.yaml wins over config.yml
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("appiumUrl: http://yaml:4723\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppiumURL != "http://yaml:4723" {
		t.Errorf("expected config.yaml to win, got %s", cfg.AppiumURL)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppiumURL != DefaultAppiumURL {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadEnvAndApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "APPIUM_URL=http://from-dotenv:4723\nAPPIUM_FIND_TIMEOUT_MS=1500\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv(EnvAppiumURL)
		os.Unsetenv(EnvFindTimeoutMs)
	})
	t.Setenv(EnvLanguage, "fil")

	if err := LoadEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.AppiumURL != "http://from-dotenv:4723" {
		t.Errorf("expected URL from .env, got %s", cfg.AppiumURL)
	}
	if cfg.FindTimeoutMs != 1500 {
		t.Errorf("expected timeout 1500, got %d", cfg.FindTimeoutMs)
	}
	if cfg.Language != "fil" {
		t.Errorf("expected language fil, got %s", cfg.Language)
	}
}

func TestApplyEnv_BadTimeout(t *testing.T) {
	t.Setenv(EnvFindTimeoutMs, "soon")

	err := Default().ApplyEnv()
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.AppiumURL = "" }},
		{"negative timeout", func(c *Config) { c.FindTimeoutMs = -1 }},
		{"negative poll", func(c *Config) { c.PollIntervalMs = -5 }},
		{"unknown language", func(c *Config) { c.Language = "latin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestHelperOptions(t *testing.T) {
	cfg := Default()
	cfg.FindTimeoutMs = 0

	b := page.NewBase(nil, cfg.HelperOptions()...)
	if b.Timeout() != 0 {
		t.Errorf("expected zero timeout (single attempt), got %v", b.Timeout())
	}
}
