// Package config provides configuration management for dataset formatting
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/paveg/dsformat/internal/digest"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration for a Formatter
type Config struct {
	// Column defaults used when an operation receives an empty column name
	SourceColumn string `json:"source_column" yaml:"source_column"` // Column hashed by Hash and Apply
	HashColumn   string `json:"hash_column" yaml:"hash_column"`     // Column receiving digests
	UUIDColumn   string `json:"uuid_column" yaml:"uuid_column"`     // Column receiving identifiers

	// Identity Configuration
	HashAlgorithm string `json:"hash_algorithm" yaml:"hash_algorithm"` // sha256, sha512 or xxhash64
	UUIDVersion   int    `json:"uuid_version" yaml:"uuid_version"`     // 4 (random) or 7 (time-ordered)

	// Parallel Processing Configuration
	Workers int `json:"workers" yaml:"workers"` // Digest workers for large datasets, 0 = runtime.NumCPU()

	// Logging Configuration
	LogLevel  string `json:"log_level" yaml:"log_level"`   // debug, info, warn, error
	LogFormat string `json:"log_format" yaml:"log_format"` // text or json

	// Debugging Configuration
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Log every operation at info level
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Record per-operation metrics
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultSourceColumn  = "document"
	DefaultHashColumn    = "hash"
	DefaultUUIDColumn    = "uuid"
	DefaultHashAlgorithm = digest.SHA256
	DefaultUUIDVersion   = 4
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// envPrefix prefixes every environment variable read by LoadFromEnv
const envPrefix = "DSFORMAT_"

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		SourceColumn: DefaultSourceColumn,
		HashColumn:   DefaultHashColumn,
		UUIDColumn:   DefaultUUIDColumn,

		HashAlgorithm: DefaultHashAlgorithm,
		UUIDVersion:   DefaultUUIDVersion,

		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,

		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns every problem found
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.SourceColumn) == "" {
		result = multierror.Append(result, fmt.Errorf("SourceColumn must not be empty"))
	}
	if strings.TrimSpace(c.HashColumn) == "" {
		result = multierror.Append(result, fmt.Errorf("HashColumn must not be empty"))
	}
	if strings.TrimSpace(c.UUIDColumn) == "" {
		result = multierror.Append(result, fmt.Errorf("UUIDColumn must not be empty"))
	}
	if c.Workers < 0 {
		result = multierror.Append(result, fmt.Errorf("Workers must be non-negative, got %d", c.Workers))
	}
	if c.HashColumn != "" && c.HashColumn == c.UUIDColumn {
		result = multierror.Append(result, fmt.Errorf("HashColumn and UUIDColumn must differ, both are %q", c.HashColumn))
	}

	if _, err := digest.NewHasher(c.HashAlgorithm); err != nil {
		result = multierror.Append(result, fmt.Errorf("HashAlgorithm: %w", err))
	}
	if _, err := digest.NewUUIDGenerator(c.UUIDVersion); err != nil {
		result = multierror.Append(result, fmt.Errorf("UUIDVersion: %w", err))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("LogLevel must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("LogFormat must be text or json, got %q", c.LogFormat))
	}

	return result.ErrorOrNil()
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.SourceColumn == "" {
		c.SourceColumn = defaults.SourceColumn
	}
	if c.HashColumn == "" {
		c.HashColumn = defaults.HashColumn
	}
	if c.UUIDColumn == "" {
		c.UUIDColumn = defaults.UUIDColumn
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = defaults.HashAlgorithm
	}
	if c.UUIDVersion == 0 {
		c.UUIDVersion = defaults.UUIDVersion
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}

	// Boolean fields are left as given so an explicit false survives
	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data
func LoadFromYAML(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a .json, .yaml or .yml file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("loading config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from DSFORMAT_* environment variables on top of the defaults.
// Unparsable numeric or boolean values are ignored.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv(envPrefix + "SOURCE_COLUMN"); val != "" {
		config.SourceColumn = val
	}

	if val := os.Getenv(envPrefix + "HASH_COLUMN"); val != "" {
		config.HashColumn = val
	}

	if val := os.Getenv(envPrefix + "UUID_COLUMN"); val != "" {
		config.UUIDColumn = val
	}

	if val := os.Getenv(envPrefix + "HASH_ALGORITHM"); val != "" {
		config.HashAlgorithm = val
	}

	if val := os.Getenv(envPrefix + "UUID_VERSION"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.UUIDVersion = parsed
		}
	}

	if val := os.Getenv(envPrefix + "WORKERS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Workers = parsed
		}
	}

	if val := os.Getenv(envPrefix + "LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv(envPrefix + "LOG_FORMAT"); val != "" {
		config.LogFormat = val
	}

	if val := os.Getenv(envPrefix + "VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	if val := os.Getenv(envPrefix + "METRICS_COLLECTION"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MetricsCollection = parsed
		}
	}

	return config
}
