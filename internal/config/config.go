// Package config loads blobdrop's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/blobdrop/pkg/blob"
)

// ErrInvalidConfig is returned when the environment holds an unusable value.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Descriptor cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the full service configuration.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Upload  UploadConfig
	Log     LogConfig
	Sentry  SentryConfig
	Blob    BlobConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Metrics MetricsConfig
}

type AppConfig struct {
	Name string `env:"APP_NAME" envDefault:"blobdrop"`
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type UploadConfig struct {
	// MaxBytes caps the upload request body.
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"33554432"`
	// MaxMemory is the multipart in-memory threshold; the rest spills to disk.
	MaxMemory int64 `env:"UPLOAD_MAX_MEMORY" envDefault:"10485760"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

type BlobConfig struct {
	Driver    string `env:"BLOB_DRIVER" envDefault:"memory"`
	Bucket    string `env:"BLOB_BUCKET"`
	AccessKey string `env:"BLOB_ACCESS_KEY"`
	SecretKey string `env:"BLOB_SECRET_KEY"`
	Endpoint  string `env:"BLOB_ENDPOINT"`
	Region    string `env:"BLOB_REGION" envDefault:"us-east-1"`
	PathStyle bool   `env:"BLOB_PATH_STYLE" envDefault:"false"`
	UseSSL    bool   `env:"BLOB_USE_SSL" envDefault:"true"`
}

// Store returns the driver configuration for blob.New.
func (c BlobConfig) Store() blob.Config {
	return blob.Config{
		Driver:    c.Driver,
		Bucket:    c.Bucket,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		PathStyle: c.PathStyle,
		UseSSL:    c.UseSSL,
	}
}

type CacheConfig struct {
	Backend string        `env:"BLOB_CACHE" envDefault:"none"`
	TTL     time.Duration `env:"BLOB_CACHE_TTL" envDefault:"5m"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads .env from the working directory when present, then parses
// the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}
	return Parse(nil)
}

// Parse builds a Config from environ, or from the process environment when
// environ is nil.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, errors.Join(ErrInvalidConfig, namedEnvError(err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// namedEnvError prefixes each field parse error with the variable it came
// from. env reports the Go field name only.
func namedEnvError(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return err
	}
	keys := envKeys(reflect.TypeFor[Config]())
	errs := make([]error, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var perr env.ParseError
		if errors.As(e, &perr) && len(keys[perr.Name]) > 0 {
			e = fmt.Errorf("%s: %w", strings.Join(keys[perr.Name], " or "), e)
		}
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// envKeys maps Go field names to their env tags across nested structs.
func envKeys(t reflect.Type) map[string][]string {
	keys := make(map[string][]string)
	for i := range t.NumField() {
		f := t.Field(i)
		key, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if key == "" && f.Type.Kind() == reflect.Struct {
			for name, nested := range envKeys(f.Type) {
				keys[name] = append(keys[name], nested...)
			}
			continue
		}
		if key != "" {
			keys[f.Name] = append(keys[f.Name], key)
		}
	}
	return keys
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	switch c.Blob.Driver {
	case "", blob.DriverMemory:
	case blob.DriverS3, blob.DriverMinIO:
		if c.Blob.Bucket == "" {
			errs = append(errs, fmt.Errorf("BLOB_BUCKET is required for driver %q", c.Blob.Driver))
		}
		if c.Blob.AccessKey == "" || c.Blob.SecretKey == "" {
			errs = append(errs, fmt.Errorf("BLOB_ACCESS_KEY and BLOB_SECRET_KEY are required for driver %q", c.Blob.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver))
	}

	if !slices.Contains([]string{CacheNone, CacheMemory, CacheRedis}, c.Cache.Backend) {
		errs = append(errs, fmt.Errorf("unknown BLOB_CACHE %q", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when BLOB_CACHE=redis"))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Upload.MaxMemory <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_MEMORY must be positive"))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
