package config

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// DBDriver selects the storage backend
type DBDriver string

const (
	DriverPostgres DBDriver = "postgres"
	DriverSQLite   DBDriver = "sqlite"
	DriverMemory   DBDriver = "memory"
)

// CacheBackend selects the page cache implementation
type CacheBackend string

const (
	CacheNone     CacheBackend = "none"
	CacheMemory   CacheBackend = "memory"
	CacheRedis    CacheBackend = "redis"
	CacheDynamoDB CacheBackend = "dynamodb"
)

// AppConfig holds the service-level settings
type AppConfig struct {
	Environment    Environment
	HTTPAddr       string
	DBDriver       DBDriver
	SQLitePath     string
	CacheBackend   CacheBackend
	CacheTTL       time.Duration
	RedisAddr      string
	DefaultPerPage int
}

// Validate checks if the application configuration is valid
func (c *AppConfig) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return &ValidationError{Field: "DB_DRIVER", Message: "must be one of postgres, sqlite, memory"}
	}

	switch c.CacheBackend {
	case CacheNone, CacheMemory, CacheRedis, CacheDynamoDB:
	default:
		return &ValidationError{Field: "CACHE_BACKEND", Message: "must be one of none, memory, redis, dynamodb"}
	}

	if c.CacheTTL <= 0 {
		return &ValidationError{Field: "CACHE_TTL_SECONDS", Message: "must be positive"}
	}

	if c.DefaultPerPage < 1 || c.DefaultPerPage > 100 {
		return &ValidationError{Field: "DEFAULT_PER_PAGE", Message: "must be between 1 and 100"}
	}

	if c.Environment == Production && c.DBDriver == DriverMemory {
		return &ValidationError{Field: "DB_DRIVER", Message: "memory storage is not allowed in production"}
	}

	return nil
}

// GetAppConfig reads the application configuration, applying defaults for
// unset keys. Set keys are checked against the same rules as secrets.
func GetAppConfig(ctx context.Context, provider Provider) (*AppConfig, error) {
	r := settingReader{ctx: ctx, provider: provider, env: provider.GetEnvironment()}

	cfg := &AppConfig{
		Environment:    r.env,
		HTTPAddr:       r.stringOr("HTTP_ADDR", ":8080"),
		DBDriver:       DBDriver(r.stringOr("DB_DRIVER", string(DriverPostgres))),
		SQLitePath:     r.stringOr("SQLITE_PATH", ""),
		CacheBackend:   CacheBackend(r.stringOr("CACHE_BACKEND", string(CacheMemory))),
		CacheTTL:       time.Duration(r.intOr("CACHE_TTL_SECONDS", 300)) * time.Second,
		RedisAddr:      fmt.Sprintf("%s:%s", r.stringOr("REDIS_HOST", "localhost"), r.stringOr("REDIS_PORT", "6379")),
		DefaultPerPage: r.intOr("DEFAULT_PER_PAGE", 15),
	}
	if r.err != nil {
		return nil, r.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid application configuration: %w", err)
	}
	return cfg, nil
}

// settingReader reads optional settings and keeps the first rule violation
type settingReader struct {
	ctx      context.Context
	provider Provider
	env      Environment
	err      error
}

func (r *settingReader) stringOr(key, def string) string {
	value, err := r.provider.GetString(r.ctx, key)
	if err != nil || value == "" {
		return def
	}
	if err := checkSetting(key, value, r.env); err != nil {
		if r.err == nil {
			r.err = err
		}
		return def
	}
	return value
}

func (r *settingReader) intOr(key string, def int) int {
	value := r.stringOr(key, strconv.Itoa(def))
	n, err := strconv.Atoi(value)
	if err != nil {
		if r.err == nil {
			r.err = &ValidationError{Field: key, Message: "must be an integer"}
		}
		return def
	}
	return n
}
