package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// Engine drivers.
const (
	DriverOpenSearch = "opensearch"
	DriverRedis      = "redis"
)

// Config holds the vecsync configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Records   RecordsConfig   `yaml:"records"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Sync      SyncConfig      `yaml:"sync"`
	Search    SearchConfig    `yaml:"search"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds search engine connection settings.
type EngineConfig struct {
	Driver           string   `yaml:"driver"` // opensearch, redis (default: opensearch)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Index            string   `yaml:"index"`
	KeyPrefix        string   `yaml:"key_prefix"` // redis only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	VectorType       string   `yaml:"vector_type"` // knn_vector, dense_vector (opensearch only)
	AWSSigV4         bool     `yaml:"aws_sigv4"`
	AWSRegion        string   `yaml:"aws_region"`
}

// RecordsConfig holds record store settings.
type RecordsConfig struct {
	Path string `yaml:"path"` // sqlite file, or :memory:
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	User              string  `yaml:"user"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unthrottled
	Skip              bool    `yaml:"skip"`
}

// SyncConfig holds sync run sizing.
type SyncConfig struct {
	PageSize        int `yaml:"page_size"`
	UploadBatchSize int `yaml:"upload_batch_size"`
	DeleteBatchSize int `yaml:"delete_batch_size"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	SimilarLimit int `yaml:"similar_limit"`
}

// ReadinessTimeoutDuration returns the engine readiness timeout.
func (e EngineConfig) ReadinessTimeoutDuration() time.Duration {
	return time.Duration(e.ReadinessTimeout) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.Driver == "" {
		c.Engine.Driver = DriverOpenSearch
	}
	if c.Engine.Index == "" {
		c.Engine.Index = "datasets"
	}
	if c.Engine.KeyPrefix == "" {
		c.Engine.KeyPrefix = "dataset:"
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 30
	}
	if c.Engine.VectorType == "" {
		c.Engine.VectorType = "knn_vector"
	}
	if c.Records.Path == "" {
		c.Records.Path = "vecsync.db"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = domain.DefaultEmbeddingModel
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = domain.DefaultVectorDimensions
	}
	if c.Sync.PageSize <= 0 {
		c.Sync.PageSize = 500
	}
	if c.Sync.UploadBatchSize <= 0 {
		c.Sync.UploadBatchSize = 100
	}
	if c.Sync.DeleteBatchSize <= 0 {
		c.Sync.DeleteBatchSize = 100
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.SimilarLimit <= 0 {
		c.Search.SimilarLimit = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Engine.Driver {
	case DriverOpenSearch, DriverRedis:
	default:
		return fmt.Errorf("engine.driver must be %q or %q, got %q", DriverOpenSearch, DriverRedis, c.Engine.Driver)
	}
	if len(c.Engine.Addrs) == 0 {
		return errors.New("engine.addrs is required")
	}
	switch c.Engine.VectorType {
	case "knn_vector", "dense_vector":
	default:
		return fmt.Errorf("engine.vector_type must be \"knn_vector\" or \"dense_vector\", got %q", c.Engine.VectorType)
	}
	if c.Engine.AWSSigV4 && c.Engine.Driver != DriverOpenSearch {
		return errors.New("engine.aws_sigv4 requires the opensearch driver")
	}
	if !c.Embedding.Skip && c.Embedding.APIKey == "" {
		return errors.New("embedding.api_key is required unless embedding.skip is set")
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative, got %v", c.Embedding.RequestsPerSecond)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
