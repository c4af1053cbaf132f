// Package config loads the application configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bubble_backend/internal/platform/db"
	"bubble_backend/internal/platform/externalapi/yahoo"
	"bubble_backend/internal/platform/redis"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Yahoo struct {
		BaseURL           string        `yaml:"base_url"`
		Timeout           time.Duration `yaml:"timeout"`
		UserAgent         string        `yaml:"user_agent"`
		RequestsPerMinute int           `yaml:"requests_per_minute"`
	} `yaml:"yahoo"`
	Cache struct {
		SeriesTTL time.Duration `yaml:"series_ttl"`
		Namespace string        `yaml:"namespace"`
	} `yaml:"cache"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Database  db.Config `yaml:"database"`
	Dashboard struct {
		AutoUpdate *bool `yaml:"auto_update"`
	} `yaml:"dashboard"`
	Prefetch struct {
		Cron    string `yaml:"cron"`
		OnStart bool   `yaml:"on_start"`
	} `yaml:"prefetch"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	// Environment variable overrides
	setString(&c.Server.Port, "PORT")
	setString(&c.Yahoo.BaseURL, "YAHOO_BASE_URL")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Prefetch.Cron, "PREFETCH_CRON")

	if err := setBool(&c.Redis.Enabled, "REDIS_ENABLED"); err != nil {
		return err
	}
	if err := setBool(&c.Database.RunMigrations, "RUN_MIGRATIONS"); err != nil {
		return err
	}
	if v := os.Getenv("DASHBOARD_AUTO_UPDATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DASHBOARD_AUTO_UPDATE: %w", err)
		}
		c.Dashboard.AutoUpdate = &b
	}
	if v := os.Getenv("SERIES_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SERIES_TTL: %w", err)
		}
		c.Cache.SeriesTTL = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Yahoo.BaseURL == "" {
		c.Yahoo.BaseURL = yahoo.DefaultBaseURL
	}
	if c.Yahoo.Timeout == 0 {
		c.Yahoo.Timeout = 30 * time.Second
	}
	if c.Yahoo.UserAgent == "" {
		c.Yahoo.UserAgent = yahoo.DefaultUserAgent
	}
	if c.Yahoo.RequestsPerMinute == 0 {
		c.Yahoo.RequestsPerMinute = 60
	}
	if c.Cache.SeriesTTL == 0 {
		c.Cache.SeriesTTL = 60 * time.Second
	}
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = "series"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == "" {
		c.Redis.Port = "6379"
	}
	if c.Dashboard.AutoUpdate == nil {
		on := true
		c.Dashboard.AutoUpdate = &on
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric: %q", c.Server.Port)
	}
	if !strings.HasPrefix(c.Yahoo.BaseURL, "http://") && !strings.HasPrefix(c.Yahoo.BaseURL, "https://") {
		return fmt.Errorf("yahoo.base_url must be an http(s) URL: %q", c.Yahoo.BaseURL)
	}
	if c.Yahoo.Timeout < 0 {
		return fmt.Errorf("yahoo.timeout must not be negative")
	}
	if c.Yahoo.RequestsPerMinute < 0 {
		return fmt.Errorf("yahoo.requests_per_minute must not be negative")
	}
	if c.Cache.SeriesTTL < 0 {
		return fmt.Errorf("cache.series_ttl must not be negative")
	}
	switch c.Database.Driver {
	case "", db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	return nil
}

// AutoUpdate reports whether the dashboard starts with auto-update on.
func (c *Config) AutoUpdate() bool {
	return c.Dashboard.AutoUpdate == nil || *c.Dashboard.AutoUpdate
}

// YahooConfig returns the chart client config. The relay list is fixed.
func (c *Config) YahooConfig() yahoo.Config {
	return yahoo.Config{
		BaseURL:   c.Yahoo.BaseURL,
		Proxies:   append([]string(nil), yahoo.DefaultProxies...),
		Timeout:   c.Yahoo.Timeout,
		UserAgent: c.Yahoo.UserAgent,
	}
}

// RedisConfig returns the Redis connection config.
func (c *Config) RedisConfig() redis.Config {
	return redis.Config{
		Host:     c.Redis.Host,
		Port:     c.Redis.Port,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
