package xrdgo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/dataset"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xrdgo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	ds, err := cfg.DatasetConfig()
	require.NoError(t, err)
	assert.Equal(t, dataset.DefaultConfig(), ds)
	assert.Equal(t, "zstd", cfg.Storage.Compression)
	assert.Equal(t, "DeepXRD", cfg.Model.Architecture)
}

func TestLoadConfig(t *testing.T) {
	t.Run("Overrides", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")
		path := writeConfig(t, `
materials_project:
  api_key: secret
  pool: [Na, Cl]
  timeout: 30s
  bytes_per_second: 1048576
  failure_policy: skip_entry
storage:
  backend: memory
  compression: lz4
dataset:
  source: Cu
  encoding: onehot
  threshold: 100
model:
  architecture: acnn
logging:
  level: debug
  format: json
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.MaterialsProject.APIKey)
		assert.Equal(t, []string{"Na", "Cl"}, cfg.MaterialsProject.Pool)
		assert.Equal(t, 30*time.Second, cfg.MaterialsProject.Timeout)
		assert.Equal(t, int64(1<<20), cfg.MaterialsProject.BytesPerSecond)
		assert.Equal(t, "lz4", cfg.Storage.Compression)
		// Untouched keys keep their defaults.
		assert.Equal(t, 4, cfg.MaterialsProject.MaxConcurrency)
		assert.InDelta(t, 0.1, cfg.Dataset.TestFraction, 1e-12)

		ds, err := cfg.DatasetConfig()
		require.NoError(t, err)
		assert.Equal(t, dataset.OneHot, ds.Encoding)
		assert.Equal(t, 100, ds.Threshold)
	})

	t.Run("APIKeyFromEnv", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "from-env")
		cfg, err := LoadConfig(writeConfig(t, "storage:\n  backend: memory\n"))
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.MaterialsProject.APIKey)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "storage: [\n"))
		assert.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "dataset:\n  test_fraction: 1.5\n"))
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Concurrency", func(c *Config) { c.MaterialsProject.MaxConcurrency = 0 }},
		{"Retries", func(c *Config) { c.MaterialsProject.Retries = -1 }},
		{"BytesPerSecond", func(c *Config) { c.MaterialsProject.BytesPerSecond = -1 }},
		{"Sources", func(c *Config) { c.MaterialsProject.Sources = nil }},
		{"Policy", func(c *Config) { c.MaterialsProject.FailurePolicy = "ignore" }},
		{"Backend", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"Bucket", func(c *Config) { c.Storage.Backend = "s3" }},
		{"MinioEndpoint", func(c *Config) { c.Storage.Backend, c.Storage.Bucket = "minio", "b" }},
		{"Codec", func(c *Config) { c.Storage.Codec = "gob" }},
		{"Compression", func(c *Config) { c.Storage.Compression = "brotli" }},
		{"Encoding", func(c *Config) { c.Dataset.Encoding = "binary" }},
		{"Neighbors", func(c *Config) { c.Dataset.Neighbors = 0 }},
		{"Architecture", func(c *Config) { c.Model.Architecture = "resnet" }},
		{"Level", func(c *Config) { c.Logging.Level = "loud" }},
		{"Format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("EmptyBackendIsLocal", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Backend = ""
		require.NoError(t, cfg.Validate())

		cfg.Storage.Path = ""
		assert.ErrorContains(t, cfg.Validate(), "storage.path")
	})
}

func TestOpenBlobStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Local", func(t *testing.T) {
		dir := t.TempDir()
		bs, err := OpenBlobStore(ctx, StorageConfig{Backend: "local", Path: dir})
		require.NoError(t, err)
		require.NoError(t, bs.Put(ctx, "a", []byte("x")))
		_, err = os.Stat(filepath.Join(dir, "a"))
		assert.NoError(t, err)
	})

	t.Run("Memory", func(t *testing.T) {
		bs, err := OpenBlobStore(ctx, StorageConfig{Backend: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &blobstore.MemoryStore{}, bs)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := OpenBlobStore(ctx, StorageConfig{Backend: "ftp"})
		assert.Error(t, err)
	})

	t.Run("MinioWithoutEndpoint", func(t *testing.T) {
		_, err := OpenBlobStore(ctx, StorageConfig{Backend: "minio", Bucket: "b"})
		assert.Error(t, err)
	})
}

func TestNewLoggerFromConfig(t *testing.T) {
	l, err := NewLoggerFromConfig(LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, l.Enabled(context.Background(), -4))

	_, err = NewLoggerFromConfig(LoggingConfig{Level: "verbose"})
	assert.Error(t, err)
}
