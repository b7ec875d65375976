package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the genrecast API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Classify  ClassifyConfig  `yaml:"classify"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
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

// DatabaseConfig holds document store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider and scheme settings.
type EmbeddingConfig struct {
	Provider   ProviderConfig   `yaml:"provider"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	// CacheEnabled wraps the provider with a store-backed embedding cache.
	CacheEnabled bool `yaml:"cache_enabled"`
}

// ProviderConfig holds embedding provider credentials. An empty APIKey does not
// fail startup: the service degrades to a mode where classify always reports
// the provider unavailable and /health shows it as not ready.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig pins the embedding scheme: model identifier plus dimensions.
// Changing either retires every stored vector computed under the old scheme.
type VectorizerConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// IndexConfig names the externally provisioned vector index.
type IndexConfig struct {
	Name        string `yaml:"name"`
	VectorField string `yaml:"vector_field"`
	// Dimensions the index was created with. Must agree with the vectorizer;
	// a mismatch produces geometrically incompatible vectors and fails startup.
	Dimensions int `yaml:"dimensions"`
}

// ClassifyConfig holds classification tuning.
type ClassifyConfig struct {
	// Limit is the number of neighbors used for the majority vote.
	Limit int `yaml:"limit"`
	// PoolSize is the ANN candidate pool breadth. 0 means max(100, 20*limit).
	PoolSize        int `yaml:"pool_size"`
	EmbedTimeoutSec int `yaml:"embed_timeout_sec"`
	QueryTimeoutSec int `yaml:"query_timeout_sec"`
}

// ReconcileConfig holds embedding backfill settings.
type ReconcileConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Vectorizer.Dimensions <= 0 {
		c.Embedding.Vectorizer.Dimensions = 768
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = c.Embedding.Vectorizer.Dimensions
	}
	if c.Index.Name == "" {
		c.Index.Name = "movies_vector_index"
	}
	if c.Index.VectorField == "" {
		c.Index.VectorField = "embedding"
	}
	if c.Classify.Limit <= 0 {
		c.Classify.Limit = 5
	}
	if c.Classify.EmbedTimeoutSec <= 0 {
		c.Classify.EmbedTimeoutSec = 10
	}
	if c.Classify.QueryTimeoutSec <= 0 {
		c.Classify.QueryTimeoutSec = 5
	}
	if c.Reconcile.BatchSize <= 0 {
		c.Reconcile.BatchSize = 50
	}
	if c.Reconcile.Workers <= 0 {
		c.Reconcile.Workers = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Vectorizer.Model == "" {
		return fmt.Errorf("embedding.vectorizer.model is required")
	}
	if c.Embedding.Vectorizer.Dimensions != c.Index.Dimensions {
		return fmt.Errorf(
			"embedding.vectorizer.dimensions (%d) does not match index.dimensions (%d); "+
				"re-create the vector index before changing the embedding scheme",
			c.Embedding.Vectorizer.Dimensions, c.Index.Dimensions,
		)
	}
	if c.Classify.PoolSize > 0 && c.Classify.PoolSize < c.Classify.Limit {
		return fmt.Errorf(
			"classify.pool_size (%d) must be >= classify.limit (%d)",
			c.Classify.PoolSize, c.Classify.Limit,
		)
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
