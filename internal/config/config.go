// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Cache backends.
const (
	BackendS3        = "s3"
	BackendRedis     = "redis"
	BackendRistretto = "ristretto"
	BackendBigCache  = "bigcache"
)

type Config struct {
	// Origin and S3 cache.
	OriginBucket string `env:"BUCKET_NAME"`
	CacheBucket  string `env:"CACHE_BUCKET"`
	CachePrefix  string `env:"CACHE_PREFIX"`
	Region       string `env:"AWS_REGION" envDefault:"us-east-1"`
	Endpoint     string `env:"S3_ENDPOINT" envDefault:"s3.amazonaws.com"`
	AccessKey    string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey    string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken string `env:"AWS_SESSION_TOKEN"`
	UseSSL       bool   `env:"S3_USE_SSL" envDefault:"true"`

	// Cache backend selection.
	Backend       string        `env:"CACHE_BACKEND" envDefault:"s3"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	KVTTL         time.Duration `env:"CACHE_TTL" envDefault:"0s"`
	KVMaxBytes    int64         `env:"CACHE_MAX_BYTES" envDefault:"268435456"`
	MetaCodec     string        `env:"CACHE_META_CODEC" envDefault:"msgpack"`

	// Transform.
	MaxDimension int    `env:"MAX_DIMENSION" envDefault:"4000"`
	JPEGQuality  int    `env:"JPEG_QUALITY" envDefault:"80"`
	Scaler       string `env:"SCALER" envDefault:"catmullrom"`

	// Process.
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	Metrics         bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// ParseEnv parses environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the process environment.
func Load() (Config, error) {
	var c Config
	if err := ParseEnv(&c); err != nil {
		return Config{}, err
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFrom is Load over an explicit variable set.
func LoadFrom(vars map[string]string) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.MetaCodec = strings.ToLower(strings.TrimSpace(c.MetaCodec))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.OriginBucket == "" {
		errs = append(errs, errors.New("BUCKET_NAME is required"))
	}
	switch c.Backend {
	case BackendS3:
		if c.CacheBucket == "" {
			errs = append(errs, errors.New("CACHE_BUCKET is required for the s3 backend"))
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis backend"))
		}
	case BackendRistretto, BackendBigCache:
		if c.KVMaxBytes <= 0 {
			errs = append(errs, fmt.Errorf("CACHE_MAX_BYTES must be > 0 for the %s backend", c.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q: want s3, redis, ristretto or bigcache", c.Backend))
	}
	switch c.MetaCodec {
	case "msgpack", "cbor", "json":
	default:
		errs = append(errs, fmt.Errorf("CACHE_META_CODEC %q: want msgpack, cbor or json", c.MetaCodec))
	}
	if c.MaxDimension <= 0 {
		errs = append(errs, fmt.Errorf("MAX_DIMENSION must be > 0, got %d", c.MaxDimension))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY must be in 1..100, got %d", c.JPEGQuality))
	}
	if c.KVTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL must not be negative"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}
