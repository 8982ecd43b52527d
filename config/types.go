package config

import "time"

// Config is the full CLI configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds connection and credential settings.
type APIConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Tenant string `mapstructure:"tenant"`
}

// ThrottleConfig tunes the sliding-window throttle gate.
type ThrottleConfig struct {
	MinSpacing         time.Duration `mapstructure:"min_spacing"`
	ThresholdRemaining int           `mapstructure:"threshold_remaining"`
	WindowDuration     time.Duration `mapstructure:"window_duration"`
	RecoveryBuffer     int           `mapstructure:"recovery_buffer"`
}

// RetryConfig governs 429 rejection handling.
type RetryConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	DefaultDelay time.Duration `mapstructure:"default_delay"`
}

// CacheConfig enables the optional Redis response cache.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}
