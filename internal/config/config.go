package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/shoprag/internal/domain/collection"
)

// Config holds the shoprag configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Cache       CacheConfig       `yaml:"cache"`
	Collections CollectionsConfig `yaml:"collections"`
	Search      SearchConfig      `yaml:"search"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // openai, langchain
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	DistanceMetric   string `yaml:"distance_metric"` // cosine, l2, ip
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutMs        int    `yaml:"timeout_ms"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver    string `yaml:"driver"` // none, redis, badger (default: none)
	TTLSec    int    `yaml:"ttl_sec"`
	BadgerDir string `yaml:"badger_dir"`
}

// CollectionsConfig describes the searchable catalog.
// When Items is empty the stock storefront catalog is used.
type CollectionsConfig struct {
	Namespace string             `yaml:"namespace"`
	Default   string             `yaml:"default"` // collection used by retrieve
	Items     []CollectionConfig `yaml:"items"`
}

// CollectionConfig is a single catalog entry.
type CollectionConfig struct {
	Key         string   `yaml:"key"`
	DisplayName string   `yaml:"display_name"`
	IndexName   string   `yaml:"index_name"`
	Weight      *float64 `yaml:"weight"`
	Enabled     *bool    `yaml:"enabled"`
	Description string   `yaml:"description"`
}

// SearchConfig holds retrieval and ranking parameters.
type SearchConfig struct {
	FetchMultiplier int         `yaml:"fetch_multiplier"`
	PoolMultiplier  int         `yaml:"pool_multiplier"`
	QueryTimeoutMs  int         `yaml:"query_timeout_ms"`
	Workers         int         `yaml:"workers"`
	DefaultLimit    int         `yaml:"default_limit"`
	Boost           BoostConfig `yaml:"boost"`
	Intent          IntentTerms `yaml:"intent"`
}

// BoostConfig holds the lexical rerank parameters of smart search.
type BoostConfig struct {
	TermBoost    *float64 `yaml:"term_boost"`
	ProductBonus *float64 `yaml:"product_bonus"`
	Vocabulary   []string `yaml:"vocabulary"`
}

// IntentTerms overrides the keyword sets of the intent classifier.
// Empty lists keep the built-in keywords.
type IntentTerms struct {
	Product []string `yaml:"product"`
	Order   []string `yaml:"order"`
	Support []string `yaml:"support"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded into the
// process environment first; variables already set are not overridden.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML and applies defaults and validation.
func Parse(data []byte) (Config, error) {
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
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "paraphrase-multilingual-MiniLM-L12-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.DistanceMetric == "" {
		c.Embedding.DistanceMetric = "cosine"
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 5000
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "none"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Collections.Default == "" {
		c.Collections.Default = collection.Products
	}
	if c.Search.FetchMultiplier <= 0 {
		c.Search.FetchMultiplier = 2
	}
	if c.Search.PoolMultiplier <= 0 {
		c.Search.PoolMultiplier = 3
	}
	if c.Search.QueryTimeoutMs <= 0 {
		c.Search.QueryTimeoutMs = 2000
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = 64
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Provider {
	case "openai", "langchain":
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"langchain\", got %q", c.Embedding.Provider)
	}
	switch c.Cache.Driver {
	case "none", "redis":
	case "badger":
		if c.Cache.BadgerDir == "" {
			return fmt.Errorf("cache.badger_dir is required for the badger driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"none\", \"redis\" or \"badger\", got %q", c.Cache.Driver)
	}
	if b := c.Search.Boost; (b.TermBoost != nil && *b.TermBoost < 0) || (b.ProductBonus != nil && *b.ProductBonus < 0) {
		return fmt.Errorf("search.boost values must be non-negative")
	}

	specs, err := c.Collections.Specs()
	if err != nil {
		return err
	}
	for _, s := range specs {
		if s.Key() == c.Collections.Default {
			return nil
		}
	}
	return fmt.Errorf("collections.default %q is not a configured collection", c.Collections.Default)
}

// Specs builds the collection catalog from config.
func (c CollectionsConfig) Specs() ([]collection.Spec, error) {
	if len(c.Items) == 0 {
		return collection.DefaultCatalog(c.Namespace), nil
	}

	specs := make([]collection.Spec, 0, len(c.Items))
	seen := make(map[string]bool, len(c.Items))
	for i, it := range c.Items {
		if seen[it.Key] {
			return nil, fmt.Errorf("collections.items[%d]: duplicate key %q", i, it.Key)
		}
		seen[it.Key] = true

		weight := 1.0
		if it.Weight != nil {
			weight = *it.Weight
		}
		enabled := true
		if it.Enabled != nil {
			enabled = *it.Enabled
		}
		index := it.IndexName
		if index == "" && c.Namespace != "" {
			index = c.Namespace + "_" + it.Key
		}

		spec, err := collection.NewSpec(it.Key, it.DisplayName, index, weight, enabled, it.Description)
		if err != nil {
			return nil, fmt.Errorf("collections.items[%d]: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
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
