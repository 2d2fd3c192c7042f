package xrdgo

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/xrdgo/codec"
	"github.com/hupe1980/xrdgo/dataset"
	"github.com/hupe1980/xrdgo/model"
	"github.com/hupe1980/xrdgo/mp"
	"github.com/hupe1980/xrdgo/scrape"
	"github.com/hupe1980/xrdgo/snapshot"
)

// APIKeyEnv is consulted when the configuration leaves the API key empty.
const APIKeyEnv = "MP_API_KEY"

// Config is the complete pipeline configuration.
type Config struct {
	MaterialsProject MaterialsProjectConfig `yaml:"materials_project"`
	Storage          StorageConfig          `yaml:"storage"`
	Dataset          DatasetConfig          `yaml:"dataset"`
	Model            ModelConfig            `yaml:"model"`
	Logging          LoggingConfig          `yaml:"logging"`
	Metrics          MetricsConfig          `yaml:"metrics"`
}

// MaterialsProjectConfig configures the remote source and the scraper.
type MaterialsProjectConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Pool     []string      `yaml:"pool"`
	Sources  []string      `yaml:"sources"`
	Timeout  time.Duration `yaml:"timeout"`
	// MaxConcurrency is the number of entries fetched in parallel.
	MaxConcurrency int `yaml:"max_concurrency"`
	// QueriesPerSecond caps the query rate. Zero means unlimited.
	QueriesPerSecond float64 `yaml:"queries_per_second"`
	// BytesPerSecond caps the rate at which response bodies are read.
	// Zero means unlimited.
	BytesPerSecond int64         `yaml:"bytes_per_second"`
	Retries        int           `yaml:"retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	FailurePolicy  string        `yaml:"failure_policy"`
}

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	// Backend is one of local, memory, s3 or minio. Empty means local.
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
	// CommitTable enables the DynamoDB commit store for the s3 backend.
	CommitTable string `yaml:"commit_table"`
	Codec       string `yaml:"codec"`
	Compression string `yaml:"compression"`
	// Snapshot is the snapshot name written by scrape. Empty names are
	// derived from the current time.
	Snapshot string `yaml:"snapshot"`
}

// DatasetConfig mirrors dataset.Config.
type DatasetConfig struct {
	Source       string  `yaml:"source"`
	Threshold    int     `yaml:"threshold"`
	Encoding     string  `yaml:"encoding"`
	Balance      bool    `yaml:"balance"`
	Neighbors    int     `yaml:"neighbors"`
	TestFraction float64 `yaml:"test_fraction"`
	Seed         uint64  `yaml:"seed"`
	// Output is the blob prefix the train/test bundle is written to. Empty
	// disables writing.
	Output string `yaml:"output"`
}

// ModelConfig selects the topology and training settings.
type ModelConfig struct {
	Architecture string  `yaml:"architecture"`
	Kernels      []int   `yaml:"kernels"`
	Strides      []int   `yaml:"strides"`
	PoolPadding  string  `yaml:"pool_padding"`
	LearningRate float64 `yaml:"learning_rate"`
	BatchSize    int     `yaml:"batch_size"`
	Epochs       int     `yaml:"epochs"`
}

// LoggingConfig configures the Logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the metrics endpoint of the binary.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() Config {
	ds := dataset.DefaultConfig()
	tc := model.DefaultTrainConfig(ds.Encoding)
	return Config{
		MaterialsProject: MaterialsProjectConfig{
			Endpoint:       mp.DefaultEndpoint,
			Sources:        append([]string(nil), scrape.DefaultSources...),
			Timeout:        time.Minute,
			MaxConcurrency: 4,
			Retries:        2,
			RetryBackoff:   time.Second,
			FailurePolicy:  scrape.FailFast.String(),
		},
		Storage: StorageConfig{
			Backend:     "local",
			Path:        "./data",
			Codec:       codec.Default.Name(),
			Compression: snapshot.CompressionZstd.String(),
		},
		Dataset: DatasetConfig{
			Source:       ds.Source,
			Threshold:    ds.Threshold,
			Encoding:     ds.Encoding.String(),
			Balance:      ds.Balance,
			Neighbors:    ds.Neighbors,
			TestFraction: ds.TestFraction,
			Seed:         ds.Seed,
		},
		Model: ModelConfig{
			Architecture: model.DeepXRD.String(),
			Kernels:      append([]int(nil), model.DefaultKernels...),
			Strides:      append([]int(nil), model.DefaultStrides...),
			PoolPadding:  string(model.PaddingSame),
			LearningRate: tc.LearningRate,
			BatchSize:    tc.BatchSize,
			Epochs:       tc.Epochs,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys missing from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.MaterialsProject.APIKey == "" {
		c.MaterialsProject.APIKey = os.Getenv(APIKeyEnv)
	}
}

// Validate rejects impossible values. A missing API key is only reported when
// scraping.
func (c Config) Validate() error {
	var errs []error

	m := c.MaterialsProject
	if m.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("materials_project.max_concurrency must be positive, got %d", m.MaxConcurrency))
	}
	if m.Retries < 0 {
		errs = append(errs, fmt.Errorf("materials_project.retries must not be negative, got %d", m.Retries))
	}
	if m.QueriesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("materials_project.queries_per_second must not be negative, got %v", m.QueriesPerSecond))
	}
	if m.BytesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("materials_project.bytes_per_second must not be negative, got %d", m.BytesPerSecond))
	}
	if len(m.Sources) == 0 {
		errs = append(errs, errors.New("materials_project.sources must not be empty"))
	}
	if _, err := scrape.ParseFailurePolicy(m.FailurePolicy); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage.Backend {
	case "", "local":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the local backend"))
		}
	case "memory":
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.bucket is required for the %s backend", c.Storage.Backend))
		}
		if c.Storage.Backend == "minio" && c.Storage.Endpoint == "" {
			errs = append(errs, errors.New("storage.endpoint is required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	if _, ok := codec.ByName(c.Storage.Codec); !ok {
		errs = append(errs, fmt.Errorf("unknown storage.codec %q", c.Storage.Codec))
	}
	if _, err := snapshot.ParseCompression(c.Storage.Compression); err != nil {
		errs = append(errs, err)
	}

	if ds, err := c.DatasetConfig(); err != nil {
		errs = append(errs, err)
	} else if err := ds.Validate(); err != nil {
		errs = append(errs, err)
	}

	if _, err := model.ParseArchitecture(c.Model.Architecture); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// DatasetConfig converts the dataset section.
func (c Config) DatasetConfig() (dataset.Config, error) {
	enc, err := dataset.ParseEncoding(c.Dataset.Encoding)
	if err != nil {
		return dataset.Config{}, err
	}
	return dataset.Config{
		Source:       c.Dataset.Source,
		Threshold:    c.Dataset.Threshold,
		Encoding:     enc,
		Balance:      c.Dataset.Balance,
		Neighbors:    c.Dataset.Neighbors,
		TestFraction: c.Dataset.TestFraction,
		Seed:         c.Dataset.Seed,
	}, nil
}

// NewLoggerFromConfig builds the Logger described by the logging section.
func NewLoggerFromConfig(c LoggingConfig) (*Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(c.Format, "json") {
		return NewJSONLogger(level), nil
	}
	return NewTextLogger(level), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown logging.level %q", s)
	}
	return level, nil
}
