// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-content/internal/cache"
	"github.com/olegiv/ocms-content/internal/store"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath   string `env:"OCMS_DB_PATH" envDefault:"./data/ocms.db"`
	DBDriver string `env:"OCMS_DB_DRIVER" envDefault:"sqlite"`

	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	CacheType    string `env:"OCMS_CACHE_TYPE" envDefault:"memory"`    // memory, redis or none
	RedisURL     string `env:"OCMS_REDIS_URL"`                         // Required when CacheType is redis
	CachePrefix  string `env:"OCMS_CACHE_PREFIX" envDefault:"ocms:"`   // Redis key prefix
	CacheTTL     int    `env:"OCMS_CACHE_TTL" envDefault:"3600"`       // Schema cache TTL in seconds
	CacheMaxSize int    `env:"OCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Comment engine
	ThreadPathRetries int     `env:"OCMS_THREAD_PATH_RETRIES" envDefault:"5"`
	CommentRateLimit  float64 `env:"OCMS_COMMENT_RATE_LIMIT" envDefault:"0.2"` // Comments per second per origin host
	CommentRateBurst  int     `env:"OCMS_COMMENT_RATE_BURST" envDefault:"5"`

	// Background jobs
	StatsReconcileSchedule string        `env:"OCMS_STATS_RECONCILE_SCHEDULE" envDefault:"@hourly"`
	EventPruneSchedule     string        `env:"OCMS_EVENT_PRUNE_SCHEDULE" envDefault:"@daily"`
	EventRetention         time.Duration `env:"OCMS_EVENT_RETENTION" envDefault:"720h"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.CacheType == cache.TypeRedis
}

// CacheTTLDuration returns the schema cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// CacheConfig returns the cache backend settings.
func (c Config) CacheConfig() cache.CacheConfig {
	cfg := cache.DefaultCacheConfig()
	cfg.Type = c.CacheType
	cfg.RedisURL = c.RedisURL
	cfg.Prefix = c.CachePrefix
	cfg.DefaultTTL = c.CacheTTLDuration()
	cfg.MaxSize = c.CacheMaxSize
	return cfg
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	switch c.DBDriver {
	case store.DriverModernc, store.DriverMattn:
	default:
		return fmt.Errorf("OCMS_DB_DRIVER must be %q or %q, got %q", store.DriverModernc, store.DriverMattn, c.DBDriver)
	}

	switch c.CacheType {
	case cache.TypeMemory, cache.TypeNone:
	case cache.TypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("OCMS_REDIS_URL is required when OCMS_CACHE_TYPE is %q", cache.TypeRedis)
		}
	default:
		return fmt.Errorf("OCMS_CACHE_TYPE must be memory, redis or none, got %q", c.CacheType)
	}

	if c.ThreadPathRetries < 1 {
		return fmt.Errorf("OCMS_THREAD_PATH_RETRIES must be at least 1, got %d", c.ThreadPathRetries)
	}
	if c.CommentRateLimit < 0 || c.CommentRateBurst < 0 {
		return fmt.Errorf("OCMS_COMMENT_RATE_LIMIT and OCMS_COMMENT_RATE_BURST must not be negative")
	}
	if c.EventRetention < 0 {
		return fmt.Errorf("OCMS_EVENT_RETENTION must not be negative, got %s", c.EventRetention)
	}

	for name, spec := range map[string]string{
		"OCMS_STATS_RECONCILE_SCHEDULE": c.StatsReconcileSchedule,
		"OCMS_EVENT_PRUNE_SCHEDULE":     c.EventPruneSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: invalid cron expression %q: %w", name, spec, err)
		}
	}
	return nil
}
