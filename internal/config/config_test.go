package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

func TestLoad_CreatesTemplatesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NAVIGATOR_LLM_PROVIDER", "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, name := range []string{"config.toml", "credentials.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	if cfg.LLM.Provider != "clova" || cfg.LLM.MaxAttempts != 3 || cfg.LLM.RetryDelay != time.Second {
		t.Errorf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.MarketData.HistoryDays != 252 {
		t.Errorf("history_days = %d, want 252", cfg.MarketData.HistoryDays)
	}
	if cfg.Alerts.Timezone != "Asia/Seoul" || cfg.Alerts.Schedule != "0 0 5 * * *" {
		t.Errorf("unexpected alert defaults: %+v", cfg.Alerts)
	}
	if cfg.Store.Path != filepath.Join(dir, "navigator.db") {
		t.Errorf("store path = %s", cfg.Store.Path)
	}
}

func TestLoad_ReadsFilesAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	config := `
[llm]
provider = "openai"
model = "gpt-4o-mini"
retry_delay = "250ms"

[store]
driver = "json"
`
	creds := `
[openai]
api_key = "file-key"

[smtp]
host = "smtp.example.com"
username = "bot@example.com"
password = "secret"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(creds), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NAVIGATOR_LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CRON_SECRET", "s3cret")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.RetryDelay != 250*time.Millisecond {
		t.Errorf("retry_delay = %v", cfg.LLM.RetryDelay)
	}
	if cfg.LLM.MaxAttempts != 3 {
		t.Errorf("max_attempts default lost: %d", cfg.LLM.MaxAttempts)
	}
	if cfg.Credentials.OpenAI.APIKey != "env-key" {
		t.Errorf("env override not applied: %q", cfg.Credentials.OpenAI.APIKey)
	}
	if cfg.Credentials.SMTP.Port != 2525 || cfg.Credentials.SMTP.From != "bot@example.com" {
		t.Errorf("smtp = %+v", cfg.Credentials.SMTP)
	}
	if cfg.Server.CronSecret != "s3cret" {
		t.Errorf("cron secret = %q", cfg.Server.CronSecret)
	}
	if cfg.Store.Path != filepath.Join(dir, "subscriptions.json") {
		t.Errorf("store path = %s", cfg.Store.Path)
	}
	if err := cfg.RequireLLM(); err != nil {
		t.Errorf("RequireLLM() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad provider", func(c *Config) { c.LLM.Provider = "bard" }, false},
		{"zero attempts", func(c *Config) { c.LLM.MaxAttempts = 0 }, false},
		{"csv without dir", func(c *Config) { c.MarketData.Provider = "csv" }, false},
		{"csv with dir", func(c *Config) { c.MarketData.Provider = "csv"; c.MarketData.CSVDir = "/data" }, true},
		{"bad store", func(c *Config) { c.Store.Driver = "redis" }, false},
		{"bad timezone", func(c *Config) { c.Alerts.Timezone = "Mars/Olympus" }, false},
		{"top_p out of range", func(c *Config) { c.LLM.TopP = 1.5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, apperrors.ErrConfigInvalid) {
					t.Errorf("error %v should wrap ErrConfigInvalid", err)
				}
			}
		})
	}
}

func TestRequireLLM_MissingCredentials(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "clova"
	if err := cfg.RequireLLM(); err == nil {
		t.Error("RequireLLM() = nil, want missing key error")
	}
	cfg.Credentials.Clova.APIKey = "key"
	if err := cfg.RequireLLM(); err != nil {
		t.Errorf("RequireLLM() = %v", err)
	}
}
