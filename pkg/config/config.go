package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-login-servers/pkg/logging"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "LOGINSERVERS"

// Storage types
const (
	StorageMemory  = "memory"
	StorageFile    = "file"
	StorageRedis   = "redis"
	StorageMongoDB = "mongodb"
)

// Config represents the application configuration.
// Leaf fields carry no envconfig name, so they are only read from their
// prefixed key (e.g. LOGINSERVERS_STORAGE_FILE_PATH), never from a bare
// variable such as PATH or HOST.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Logging   logging.Config  `yaml:"logging" envconfig:"LOGGING"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true"`
}

// StorageConfig contains storage configuration
type StorageConfig struct {
	Type    string        `yaml:"type"` // memory, file, redis, mongodb
	File    FileConfig    `yaml:"file" envconfig:"FILE"`
	Redis   RedisConfig   `yaml:"redis" envconfig:"REDIS"`
	MongoDB MongoDBConfig `yaml:"mongodb" envconfig:"MONGODB"`
}

// FileConfig contains local file storage configuration
type FileConfig struct {
	// Path of the YAML store. Empty means the per-user XDG config location.
	Path string `yaml:"path"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix" split_words:"true"`
}

// MongoDBConfig contains MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	Timeout  int    `yaml:"timeout"` // seconds
}

// RateLimitConfig contains per-client rate limiting for the HTTP API
type RateLimitConfig struct {
	Enabled                bool `yaml:"enabled"`
	RequestsPerMinute      int  `yaml:"requests_per_minute" split_words:"true"`
	BurstSize              int  `yaml:"burst_size" split_words:"true"`
	CleanupIntervalSeconds int  `yaml:"cleanup_interval_seconds" split_words:"true"`
}

// SetDefaults fills zero values with defaults
func (c *RateLimitConfig) SetDefaults() {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 120
	}
	if c.BurstSize <= 0 {
		c.BurstSize = 20
	}
	if c.CleanupIntervalSeconds <= 0 {
		c.CleanupIntervalSeconds = 600
	}
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Load from YAML file if provided (overrides defaults)
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Type: StorageFile,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "loginservers:",
			},
			MongoDB: MongoDBConfig{
				URI:      "mongodb://localhost:27017",
				Database: "login_servers",
				Timeout:  10,
			},
		},
		Logging: logging.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Enabled:                true,
			RequestsPerMinute:      120,
			BurstSize:              20,
			CleanupIntervalSeconds: 600,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Type {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if c.Storage.Redis.Address == "" {
			return fmt.Errorf("redis address is required when using redis storage")
		}
	case StorageMongoDB:
		if c.Storage.MongoDB.URI == "" {
			return fmt.Errorf("mongodb uri is required when using mongodb storage")
		}
		if c.Storage.MongoDB.Database == "" {
			return fmt.Errorf("mongodb database is required when using mongodb storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, file, redis, or mongodb)", c.Storage.Type)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute cannot be negative")
	}

	return nil
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
