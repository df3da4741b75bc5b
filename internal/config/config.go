package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// StoreKind names a kv backend.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreRedis  StoreKind = "redis"
	StoreS3     StoreKind = "s3"
	StorePebble StoreKind = "pebble"
	StoreSQLite StoreKind = "sqlite"
)

type Config struct {
	ListenAddr      string        `env:"OFFCACHE_LISTEN_ADDR" envDefault:":8080"`
	UpstreamBaseURL string        `env:"OFFCACHE_UPSTREAM_BASE_URL"`
	UpstreamTimeout time.Duration `env:"OFFCACHE_UPSTREAM_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"OFFCACHE_LOG_LEVEL" envDefault:"info"`

	Store      StoreKind `env:"OFFCACHE_STORE" envDefault:"pebble"`
	PebblePath string    `env:"OFFCACHE_PEBBLE_PATH" envDefault:"offcache.pebble"`
	SQLitePath string    `env:"OFFCACHE_SQLITE_PATH" envDefault:"offcache.db"`

	RedisAddr     string `env:"OFFCACHE_REDIS_ADDR"`
	RedisDB       int    `env:"OFFCACHE_REDIS_DB" envDefault:"0"`
	RedisPassword string `env:"OFFCACHE_REDIS_PASSWORD"`

	S3Endpoint  string `env:"OFFCACHE_S3_ENDPOINT"`
	S3Region    string `env:"OFFCACHE_S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"OFFCACHE_S3_BUCKET"`
	S3AccessKey string `env:"OFFCACHE_S3_ACCESS_KEY"`
	S3SecretKey string `env:"OFFCACHE_S3_SECRET_KEY"`

	Prefix                 string        `env:"OFFCACHE_PREFIX" envDefault:"offline_cache"`
	DefaultExpiry          time.Duration `env:"OFFCACHE_DEFAULT_EXPIRY" envDefault:"24h"`
	DefaultVersion         string        `env:"OFFCACHE_DEFAULT_VERSION" envDefault:"1.0"`
	StrictRemove           bool          `env:"OFFCACHE_STRICT_REMOVE" envDefault:"false"`
	KeepMismatchedVersions bool          `env:"OFFCACHE_KEEP_MISMATCHED_VERSIONS" envDefault:"false"`

	LockTTL     time.Duration `env:"OFFCACHE_LOCK_TTL" envDefault:"45s"`
	MaxLockWait time.Duration `env:"OFFCACHE_MAX_LOCK_WAIT" envDefault:"3s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = StoreKind(strings.ToLower(strings.TrimSpace(string(cfg.Store))))
	return cfg, cfg.Validate()
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePebble:
		if c.PebblePath == "" {
			return errors.New("OFFCACHE_PEBBLE_PATH is required")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("OFFCACHE_SQLITE_PATH is required")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("OFFCACHE_REDIS_ADDR is required")
		}
	case StoreS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return errors.New("S3 endpoint/bucket/access/secret are required")
		}
	default:
		return fmt.Errorf("unknown OFFCACHE_STORE %q", c.Store)
	}
	if strings.Contains(c.Prefix, ":") {
		return errors.New("OFFCACHE_PREFIX must not contain ':'")
	}
	return nil
}
