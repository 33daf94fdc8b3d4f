// Package config provides configuration management for the navigator service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	LLM         LLMConfig        `mapstructure:"llm"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	Server      ServerConfig     `mapstructure:"server"`
	Alerts      AlertsConfig     `mapstructure:"alerts"`
	Store       StoreConfig      `mapstructure:"store"`
	Log         LogConfig        `mapstructure:"log"`
	Credentials Credentials      `mapstructure:"-" json:"-"` // Loaded separately
}

// LLMConfig holds the upstream model settings shared by all providers.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"` // clova, openai
	BaseURL        string        `mapstructure:"base_url"` // empty selects the provider default
	Model          string        `mapstructure:"model"`    // empty selects the provider default
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
	TopP           float64       `mapstructure:"top_p"`
	TopK           int           `mapstructure:"top_k"`
	RepeatPenalty  float64       `mapstructure:"repeat_penalty"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MarketDataConfig holds price history provider settings.
type MarketDataConfig struct {
	Provider    string        `mapstructure:"provider"` // yahoo, csv
	BaseURL     string        `mapstructure:"base_url"`
	CSVDir      string        `mapstructure:"csv_dir"`
	HistoryDays int           `mapstructure:"history_days"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	CronSecret string `mapstructure:"cron_secret"`
}

// AlertsConfig holds daily alert job settings.
type AlertsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
	Timezone string `mapstructure:"timezone"`
	SiteURL  string `mapstructure:"site_url"`
}

// StoreConfig holds subscription persistence settings.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, json
	Path   string `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Credentials holds API credentials.
type Credentials struct {
	Clova  ClovaCredentials  `mapstructure:"clova"`
	OpenAI OpenAICredentials `mapstructure:"openai"`
	SMTP   SMTPCredentials   `mapstructure:"smtp"`
}

// ClovaCredentials holds HyperCLOVA X Studio credentials.
type ClovaCredentials struct {
	APIKey    string `mapstructure:"api_key"`
	RequestID string `mapstructure:"request_id"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// SMTPCredentials holds outgoing mail settings.
type SMTPCredentials struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Configured reports whether enough is set to send mail.
func (s SMTPCredentials) Configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/goldeneye-navigator"
	}
	return filepath.Join(home, ".config", "goldeneye-navigator")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// Missing files are created from templates and then read back.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.resolvePaths(configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no files are present.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	cfg.resolvePaths(DefaultConfigDir())
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "clova")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 0.6)
	v.SetDefault("llm.top_p", 0.8)
	v.SetDefault("llm.top_k", 0)
	v.SetDefault("llm.repeat_penalty", 5.0)
	v.SetDefault("llm.request_timeout", "60s")

	v.SetDefault("market_data.provider", "yahoo")
	v.SetDefault("market_data.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market_data.csv_dir", "")
	v.SetDefault("market_data.history_days", 252)
	v.SetDefault("market_data.timeout", "15s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cron_secret", "")

	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.schedule", "0 0 5 * * *")
	v.SetDefault("alerts.timezone", "Asia/Seoul")
	v.SetDefault("alerts.site_url", "http://localhost:8080")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", true)
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplate(configDir, "config.toml", configTemplate, 0644); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetDefault("smtp.port", 587)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Use restricted permissions for credentials file
		if err := createTemplate(configDir, "credentials.toml", credentialsTemplate, 0600); err != nil {
			return err
		}
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	// HyperCLOVA X credentials
	if v := os.Getenv("HYPERCLOVA_API_KEY"); v != "" {
		cfg.Credentials.Clova.APIKey = v
	}
	if v := os.Getenv("HYPERCLOVA_REQUEST_ID"); v != "" {
		cfg.Credentials.Clova.RequestID = v
	}

	// OpenAI credentials
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}

	// Mail
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.Credentials.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Credentials.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Credentials.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Credentials.SMTP.Password = v
	}

	if v := os.Getenv("CRON_SECRET"); v != "" {
		cfg.Server.CronSecret = v
	}
	if v := os.Getenv("NAVIGATOR_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
}

func (c *Config) resolvePaths(configDir string) {
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case "json":
			c.Store.Path = filepath.Join(configDir, "subscriptions.json")
		default:
			c.Store.Path = filepath.Join(configDir, "navigator.db")
		}
	}
	if c.Log.FilePath == "" {
		c.Log.FilePath = filepath.Join(configDir, "logs", "navigator.log")
	}
	if c.Credentials.SMTP.From == "" {
		c.Credentials.SMTP.From = c.Credentials.SMTP.Username
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "clova", "openai":
	default:
		return invalid("llm.provider", c.LLM.Provider, "must be 'clova' or 'openai'")
	}
	if c.LLM.MaxAttempts < 1 {
		return invalid("llm.max_attempts", c.LLM.MaxAttempts, "must be at least 1")
	}
	if c.LLM.RetryDelay < 0 {
		return invalid("llm.retry_delay", c.LLM.RetryDelay, "must be non-negative")
	}
	if c.LLM.MaxTokens <= 0 {
		return invalid("llm.max_tokens", c.LLM.MaxTokens, "must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return invalid("llm.temperature", c.LLM.Temperature, "must be between 0 and 2")
	}
	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		return invalid("llm.top_p", c.LLM.TopP, "must be between 0 and 1")
	}

	switch c.MarketData.Provider {
	case "yahoo":
	case "csv":
		if c.MarketData.CSVDir == "" {
			return invalid("market_data.csv_dir", "", "required for the csv provider")
		}
	default:
		return invalid("market_data.provider", c.MarketData.Provider, "must be 'yahoo' or 'csv'")
	}
	if c.MarketData.HistoryDays <= 0 {
		return invalid("market_data.history_days", c.MarketData.HistoryDays, "must be positive")
	}

	switch c.Store.Driver {
	case "sqlite", "json":
	default:
		return invalid("store.driver", c.Store.Driver, "must be 'sqlite' or 'json'")
	}

	if c.Alerts.Timezone != "" {
		if _, err := time.LoadLocation(c.Alerts.Timezone); err != nil {
			return invalid("alerts.timezone", c.Alerts.Timezone, err.Error())
		}
	}

	return nil
}

// RequireLLM fails when the selected provider has no credentials.
func (c *Config) RequireLLM() error {
	switch c.LLM.Provider {
	case "clova":
		if c.Credentials.Clova.APIKey == "" {
			return invalid("clova.api_key", "", "missing HyperCLOVA X API key (set HYPERCLOVA_API_KEY)")
		}
	case "openai":
		if c.Credentials.OpenAI.APIKey == "" {
			return invalid("openai.api_key", "", "missing OpenAI API key (set OPENAI_API_KEY)")
		}
	}
	return nil
}

func invalid(field string, value interface{}, message string) error {
	return fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, apperrors.NewValidationError(field, value, message))
}
