package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the stixfeed API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	TAXII    TAXIIConfig    `yaml:"taxii"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"` // default: determined by env
}

// AuthConfig holds bearer token resolution settings.
type AuthConfig struct {
	CacheSize   int `yaml:"cache_size" validate:"gte=0"`
	CacheTTLSec int `yaml:"cache_ttl_sec" validate:"gte=0"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver" validate:"oneof=redis"`
	Addrs            []string `yaml:"addrs" validate:"required,min=1,dive,hostname_port"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TAXIIConfig holds the TAXII server surface and feed pagination settings.
type TAXIIConfig struct {
	MaxPaginationResult int    `yaml:"max_pagination_result" validate:"min=1"`
	ResultWindow        int    `yaml:"result_window" validate:"min=1"`
	Title               string `yaml:"title" validate:"required,max=200"`
	Description         string `yaml:"description" validate:"max=2000"`
	Contact             string `yaml:"contact" validate:"max=500"`
	APIRoot             string `yaml:"api_root" validate:"required,alphanum"`
	MaxContentLength    int    `yaml:"max_content_length" validate:"min=1"`
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
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.TAXII.MaxPaginationResult <= 0 {
		c.TAXII.MaxPaginationResult = 500
	}
	if c.TAXII.ResultWindow <= 0 {
		c.TAXII.ResultWindow = 10000
	}
	if c.TAXII.Title == "" {
		c.TAXII.Title = "stixfeed TAXII server"
	}
	if c.TAXII.APIRoot == "" {
		c.TAXII.APIRoot = "root"
	}
	if c.TAXII.MaxContentLength <= 0 {
		c.TAXII.MaxContentLength = 100 * 1024 * 1024
	}
	if c.Auth.CacheSize <= 0 {
		c.Auth.CacheSize = 1024
	}
	if c.Auth.CacheTTLSec <= 0 {
		c.Auth.CacheTTLSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.TAXII.MaxPaginationResult > c.TAXII.ResultWindow {
		return fmt.Errorf(
			"taxii.max_pagination_result (%d) must not exceed taxii.result_window (%d)",
			c.TAXII.MaxPaginationResult, c.TAXII.ResultWindow,
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
