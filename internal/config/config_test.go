package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blobdrop/internal/config"
	"github.com/dmitrymomot/blobdrop/pkg/blob"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, "blobdrop", cfg.App.Name)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	require.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
	require.Equal(t, int64(10<<20), cfg.Upload.MaxMemory)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Empty(t, cfg.Sentry.DSN)
	require.Equal(t, "production", cfg.Sentry.Environment)
	require.Equal(t, blob.DriverMemory, cfg.Blob.Driver)
	require.Equal(t, "us-east-1", cfg.Blob.Region)
	require.False(t, cfg.Blob.PathStyle)
	require.True(t, cfg.Blob.UseSSL)
	require.Equal(t, config.CacheNone, cfg.Cache.Backend)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.True(t, cfg.Metrics.Enabled)
}

func TestParse_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(map[string]string{
		"APP_NAME":         "drop",
		"HTTP_ADDR":        "127.0.0.1:9000",
		"UPLOAD_MAX_BYTES": "1024",
		"BLOB_DRIVER":      "s3",
		"BLOB_BUCKET":      "uploads",
		"BLOB_ACCESS_KEY":  "ak",
		"BLOB_SECRET_KEY":  "sk",
		"BLOB_ENDPOINT":    "http://localhost:9000",
		"BLOB_PATH_STYLE":  "true",
		"BLOB_CACHE":       "redis",
		"BLOB_CACHE_TTL":   "1m",
		"REDIS_URL":        "redis://localhost:6379/0",
		"METRICS_ENABLED":  "false",
	})
	require.NoError(t, err)

	require.Equal(t, "drop", cfg.App.Name)
	require.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	require.Equal(t, time.Minute, cfg.Cache.TTL)
	require.False(t, cfg.Metrics.Enabled)

	store := cfg.Blob.Store()
	require.Equal(t, blob.Config{
		Driver:    "s3",
		Bucket:    "uploads",
		AccessKey: "ak",
		SecretKey: "sk",
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		PathStyle: true,
		UseSSL:    true,
	}, store)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		environ map[string]string
		want    string
	}{
		{
			name:    "unknown driver",
			environ: map[string]string{"BLOB_DRIVER": "gcs"},
			want:    `unknown BLOB_DRIVER "gcs"`,
		},
		{
			name:    "s3 without bucket",
			environ: map[string]string{"BLOB_DRIVER": "s3", "BLOB_ACCESS_KEY": "a", "BLOB_SECRET_KEY": "b"},
			want:    "BLOB_BUCKET is required",
		},
		{
			name:    "minio without credentials",
			environ: map[string]string{"BLOB_DRIVER": "minio", "BLOB_BUCKET": "b"},
			want:    "BLOB_ACCESS_KEY and BLOB_SECRET_KEY are required",
		},
		{
			name:    "unknown cache",
			environ: map[string]string{"BLOB_CACHE": "memcached"},
			want:    `unknown BLOB_CACHE "memcached"`,
		},
		{
			name:    "redis cache without url",
			environ: map[string]string{"BLOB_CACHE": "redis"},
			want:    "REDIS_URL is required",
		},
		{
			name:    "non-positive body cap",
			environ: map[string]string{"UPLOAD_MAX_BYTES": "0"},
			want:    "UPLOAD_MAX_BYTES must be positive",
		},
		{
			name:    "unparsable duration",
			environ: map[string]string{"BLOB_CACHE_TTL": "soon"},
			want:    `BLOB_CACHE_TTL: parse error on field "TTL"`,
		},
		{
			name:    "unparsable bool",
			environ: map[string]string{"METRICS_ENABLED": "maybe"},
			want:    "METRICS_ENABLED: parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse(tt.environ)
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			require.ErrorContains(t, err, tt.want)
		})
	}
}
