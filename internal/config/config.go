package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
// Values come from an optional YAML file (CONFIG_FILE) and are then
// overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Coupon    CouponConfig    `yaml:"coupon"`
	Backend   BackendConfig   `yaml:"backend"`
	POS       POSConfig       `yaml:"pos"`
	Export    ExportConfig    `yaml:"export"`
	Notify    NotifyConfig    `yaml:"notify"`
	Layout    LayoutConfig    `yaml:"layout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Port            string `yaml:"port"`
	Host            string `yaml:"host"`
	ReadTimeout     int    `yaml:"read_timeout"`
	WriteTimeout    int    `yaml:"write_timeout"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // Valid API keys for authentication
}

// CouponConfig lists the coupon base files. Either source may be empty;
// when both are empty coupon validation rejects every code.
type CouponConfig struct {
	URLs  []string `yaml:"urls"`
	Files []string `yaml:"files"`
}

// BackendConfig points at the external REST backend that owns all records.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout int    `yaml:"timeout"` // seconds
}

type POSConfig struct {
	TaxRate     string `yaml:"tax_rate"`     // fraction, e.g. "0.05"
	IdleTimeout int    `yaml:"idle_timeout"` // minutes before an untouched session is dropped
}

type ExportConfig struct {
	CurrencySymbol string `yaml:"currency_symbol"`
}

// NotifyConfig controls the latest-order poller.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval int    `yaml:"interval"` // seconds
	Debounce int    `yaml:"debounce"` // milliseconds, 0 disables
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

// LayoutConfig carries the admin shell preferences served to clients.
type LayoutConfig struct {
	SidebarCollapsed bool `yaml:"sidebar_collapsed" json:"sidebarCollapsed"`
	PollInterval     int  `yaml:"-" json:"pollIntervalSeconds"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load reads configuration from the optional YAML file and environment variables
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "0.0.0.0",
			ReadTimeout:     15,
			WriteTimeout:    15,
			ShutdownTimeout: 30,
		},
		Auth: AuthConfig{
			APIKeys: []string{"apitest"},
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000/api/v1",
			Timeout: 15,
		},
		POS: POSConfig{
			TaxRate:     "0.05",
			IdleTimeout: 120,
		},
		Export: ExportConfig{
			CurrencySymbol: "$",
		},
		Notify: NotifyConfig{
			Enabled:  true,
			Interval: 30,
			Exchange: "orders_fanout",
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		LogLevel: "info",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsInt("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Auth.APIKeys = getEnvAsSlice("API_KEYS", c.Auth.APIKeys)

	c.Coupon.URLs = getEnvAsSlice("COUPON_FILE_URLS", c.Coupon.URLs)
	c.Coupon.Files = getEnvAsSlice("COUPON_FILES", c.Coupon.Files)

	c.Backend.BaseURL = getEnv("BACKEND_BASE_URL", c.Backend.BaseURL)
	c.Backend.Token = getEnv("BACKEND_TOKEN", c.Backend.Token)
	c.Backend.Timeout = getEnvAsInt("BACKEND_TIMEOUT", c.Backend.Timeout)

	c.POS.TaxRate = getEnv("POS_TAX_RATE", c.POS.TaxRate)
	c.POS.IdleTimeout = getEnvAsInt("POS_IDLE_TIMEOUT", c.POS.IdleTimeout)
	c.Export.CurrencySymbol = getEnv("EXPORT_CURRENCY_SYMBOL", c.Export.CurrencySymbol)

	c.Notify.Enabled = getEnvAsBool("NOTIFY_ENABLED", c.Notify.Enabled)
	c.Notify.Interval = getEnvAsInt("NOTIFY_INTERVAL", c.Notify.Interval)
	c.Notify.Debounce = getEnvAsInt("NOTIFY_DEBOUNCE_MS", c.Notify.Debounce)
	c.Notify.AMQPURL = getEnv("NOTIFY_AMQP_URL", c.Notify.AMQPURL)
	c.Notify.Exchange = getEnv("NOTIFY_EXCHANGE", c.Notify.Exchange)

	c.Layout.SidebarCollapsed = getEnvAsBool("LAYOUT_SIDEBAR_COLLAPSED", c.Layout.SidebarCollapsed)
	c.Layout.PollInterval = c.Notify.Interval

	c.RateLimit.RPS = getEnvAsFloat("RATE_LIMIT_RPS", c.RateLimit.RPS)
	c.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.Burst)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %q", c.Backend.BaseURL)
	}

	rate, err := decimal.NewFromString(c.POS.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", c.POS.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate must be between 0 and 1, got %s", c.POS.TaxRate)
	}

	if c.POS.IdleTimeout <= 0 {
		return fmt.Errorf("POS idle timeout must be positive")
	}

	if c.Notify.Enabled && c.Notify.Interval <= 0 {
		return fmt.Errorf("notify interval must be positive when polling is enabled")
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1 when rps is set")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// TaxRate returns the validated POS tax rate.
func (c *Config) TaxRate() decimal.Decimal {
	return decimal.RequireFromString(c.POS.TaxRate)
}

// SessionIdleTimeout returns how long a POS session may stay untouched.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.POS.IdleTimeout) * time.Minute
}

// BackendTimeout returns the backend request timeout as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
