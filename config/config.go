// Package config loads CLI configuration from file and environment
// using viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/stocktide/inventory-client/pkg/client"
	"github.com/stocktide/inventory-client/pkg/ratelimit"
)

// Load reads configuration from configPath, or from the standard
// locations when empty. Environment variables with the STOCKTIDE_
// prefix override file values (e.g. STOCKTIDE_API_TOKEN), so a config
// file is optional when credentials come from the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("STOCKTIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".stocktide"))
		}
		v.AddConfigPath("/etc/stocktide/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// No config file found in the search paths: rely on defaults
		// and environment overrides.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "https://api.stocktide.io")

	v.SetDefault("throttle.min_spacing", "500ms")
	v.SetDefault("throttle.threshold_remaining", 20)
	v.SetDefault("throttle.window_duration", "5m")
	v.SetDefault("throttle.recovery_buffer", 10)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.default_delay", "5s")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// validate checks if the configuration is valid.
func validate(cfg *Config) error {
	if cfg.API.Token == "" {
		return fmt.Errorf("api.token is required")
	}
	if cfg.API.Tenant == "" {
		return fmt.Errorf("api.tenant is required")
	}
	if cfg.Throttle.RecoveryBuffer < 0 {
		return fmt.Errorf("throttle.recovery_buffer must not be negative")
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	return nil
}

// ClientConfig maps the loaded configuration onto a client.Config.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.API.Token, c.API.Tenant)
	cfg.BaseURL = c.API.URL
	cfg.Throttle = ratelimit.Config{
		MinSpacing:         c.Throttle.MinSpacing,
		ThresholdRemaining: c.Throttle.ThresholdRemaining,
		WindowDuration:     c.Throttle.WindowDuration,
		RecoveryBuffer:     c.Throttle.RecoveryBuffer,
	}
	cfg.Retry = client.RetryPolicy{
		MaxRetries:   c.Retry.MaxRetries,
		DefaultDelay: c.Retry.DefaultDelay,
	}

	if c.Cache.Enabled {
		cfg.Redis = redis.NewClient(&redis.Options{
			Addr: c.Cache.RedisAddr,
			DB:   c.Cache.RedisDB,
		})
	}

	return cfg
}
