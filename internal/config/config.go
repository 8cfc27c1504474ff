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

// Generation provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config holds the collabmatch configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Profiles   ProfilesConfig   `yaml:"profiles"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	MaxPreviewLen int    `yaml:"max_preview_len"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int `yaml:"max_upload_mb"`
	// APIKeys enables bearer authentication on /api routes when non-empty.
	APIKeys []string `yaml:"api_keys"`
}

// CacheConfig holds the optional Redis embedding cache. Empty Addrs disables it.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	WriteTimeoutMs   int      `yaml:"write_timeout_ms"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache backend is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// RetryConfig bounds remote call attempts.
type RetryConfig struct {
	TimeoutSec  int `yaml:"timeout_sec"`
	MaxAttempts int `yaml:"max_attempts"`
	BackoffMs   int `yaml:"backoff_ms"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey      string      `yaml:"api_key"`
	APIKeyFile  string      `yaml:"api_key_file"`
	BaseURL     string      `yaml:"base_url"`
	Model       string      `yaml:"model"`
	Dimensions  int         `yaml:"dimensions"`
	Retry       RetryConfig `yaml:"retry"`
	WarmOnStart bool        `yaml:"warm_on_start"`
}

// GenerationConfig holds explanation generator settings.
type GenerationConfig struct {
	Provider          string      `yaml:"provider"` // openai, gemini, none
	APIKey            string      `yaml:"api_key"`
	APIKeyFile        string      `yaml:"api_key_file"`
	BaseURL           string      `yaml:"base_url"`
	Model             string      `yaml:"model"`
	Temperature       float32     `yaml:"temperature"`
	Retry             RetryConfig `yaml:"retry"`
	RequestsPerSecond float64     `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int         `yaml:"burst"`
}

// ProfilesConfig controls where the in-memory profile set comes from.
// File (JSON array) wins over synthetic generation.
type ProfilesConfig struct {
	File  string `yaml:"file"`
	Count int    `yaml:"count"`
	Seed  uint64 `yaml:"seed"`
}

// RecommendConfig holds matching settings.
type RecommendConfig struct {
	TopK           int     `yaml:"top_k"`
	MaxConcurrency int     `yaml:"max_concurrency"`
	NameThreshold  float64 `yaml:"name_threshold"`
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// explanations fan out to the generator, keep room for retries
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "collabmatch:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	c.Embedding.Retry.applyDefaults(15)
	if c.Generation.Provider == "" {
		c.Generation.Provider = ProviderOpenAI
	}
	if c.Generation.Model == "" {
		switch c.Generation.Provider {
		case ProviderGemini:
			c.Generation.Model = "gemini-2.5-flash"
		default:
			c.Generation.Model = "gpt-4o"
		}
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.7
	}
	c.Generation.Retry.applyDefaults(30)
	if c.Generation.Burst <= 0 {
		c.Generation.Burst = 1
	}
	if c.Profiles.Count <= 0 {
		c.Profiles.Count = 50
	}
	if c.Profiles.Seed == 0 {
		c.Profiles.Seed = 42
	}
	if c.Recommend.TopK <= 0 {
		c.Recommend.TopK = 5
	}
	if c.Recommend.MaxConcurrency <= 0 {
		c.Recommend.MaxConcurrency = 5
	}
	if c.Recommend.NameThreshold <= 0 {
		c.Recommend.NameThreshold = 0.85
	}
	if c.Logging.MaxPreviewLen <= 0 {
		c.Logging.MaxPreviewLen = 200
	}
}

func (r *RetryConfig) applyDefaults(timeoutSec int) {
	if r.TimeoutSec <= 0 {
		r.TimeoutSec = timeoutSec
	}
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 3
	}
	if r.BackoffMs <= 0 {
		r.BackoffMs = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
		// ok
	default:
		return fmt.Errorf(
			"generation.provider must be %q, %q or %q, got %q",
			ProviderOpenAI, ProviderGemini, ProviderNone, c.Generation.Provider,
		)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", c.Generation.Temperature)
	}
	if c.Generation.RequestsPerSecond < 0 {
		return fmt.Errorf("generation.requests_per_second must not be negative")
	}
	if c.Recommend.NameThreshold > 1 {
		return fmt.Errorf("recommend.name_threshold must be in (0, 1], got %v", c.Recommend.NameThreshold)
	}
	if c.Recommend.MaxConcurrency > 64 {
		return fmt.Errorf("recommend.max_concurrency must be at most 64, got %d", c.Recommend.MaxConcurrency)
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
