// Package config loads the importer's YAML configuration. Values may
// reference environment variables ($VAR), which are expanded before parsing,
// so secrets like the ENTSO-E token can stay out of the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the importer.
type Config struct {
	Entsoe    EntsoeConfig    `mapstructure:"entsoe" yaml:"entsoe"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

type EntsoeConfig struct {
	AuthToken           string  `mapstructure:"auth_token" yaml:"auth_token"`
	AuthTokenTestServer string  `mapstructure:"auth_token_test_server" yaml:"auth_token_test_server"`
	UseTestServer       bool    `mapstructure:"use_test_server" yaml:"use_test_server"`
	CountryCode         string  `mapstructure:"country_code" yaml:"country_code"`
	CountryTimezone     string  `mapstructure:"country_timezone" yaml:"country_timezone"`
	RequestTimeout      int     `mapstructure:"request_timeout" yaml:"request_timeout"`
	RateLimit           float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateLimitBurst      int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	CacheSize           int     `mapstructure:"cache_size" yaml:"cache_size"`
}

// Token returns the auth token for the selected server.
func (e EntsoeConfig) Token() string {
	if e.UseTestServer {
		return e.AuthTokenTestServer
	}
	return e.AuthToken
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Name     string `mapstructure:"name" yaml:"name"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	SSLMode  string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
}

// ConnString builds a lib/pq connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type SchedulerConfig struct {
	Cron string `mapstructure:"cron" yaml:"cron"`
	// Timeout bounds one scheduled import run, in seconds.
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration from a YAML file, expanding environment variable
// references first and filling unset keys with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadConfig(strings.NewReader(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("entsoe.country_code", "NL")
	v.SetDefault("entsoe.request_timeout", 30)
	// The platform allows 400 requests per minute.
	v.SetDefault("entsoe.rate_limit", 5.0)
	v.SetDefault("entsoe.rate_limit_burst", 10)
	v.SetDefault("entsoe.cache_size", 128)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	// Day-ahead results come out during the afternoon; retry hourly.
	v.SetDefault("scheduler.cron", "30 13-17 * * *")
	v.SetDefault("scheduler.timeout", 120)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// String renders the effective configuration as YAML with secrets redacted,
// for startup logging.
func (c Config) String() string {
	redacted := c
	if redacted.Entsoe.AuthToken != "" {
		redacted.Entsoe.AuthToken = "***"
	}
	if redacted.Entsoe.AuthTokenTestServer != "" {
		redacted.Entsoe.AuthTokenTestServer = "***"
	}
	if redacted.Database.Password != "" {
		redacted.Database.Password = "***"
	}
	out, err := yaml.Marshal(redacted)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
