// ABOUTME: Configuration loading and parsing for tagmind-orchestrator
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file leaves a field empty.
const (
	DefaultConnectTimeout       = 2 * time.Second
	DefaultLLMReadTimeout       = 5 * time.Second
	DefaultRetrieverReadTimeout = 3 * time.Second
)

// Config represents the complete tagmind-orchestrator configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// UpstreamConfig holds llm-gateway and web-retriever client configuration.
// The LLM_URL and RETRIEVER_URL environment variables take precedence over
// the URL fields here; the clients resolve that themselves.
type UpstreamConfig struct {
	LLMURL       string `yaml:"llm_url"`
	RetrieverURL string `yaml:"retriever_url"`

	ConnectTimeout       time.Duration `yaml:"-"`
	LLMReadTimeout       time.Duration `yaml:"-"`
	RetrieverReadTimeout time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	ConnectTimeoutRaw       string `yaml:"connect_timeout"`
	LLMReadTimeoutRaw       string `yaml:"llm_read_timeout"`
	RetrieverReadTimeoutRaw string `yaml:"retriever_read_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Upstream.ConnectTimeoutRaw != "" {
		cfg.Upstream.ConnectTimeout, err = time.ParseDuration(cfg.Upstream.ConnectTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing connect_timeout %q: %w", cfg.Upstream.ConnectTimeoutRaw, err)
		}
	}

	if cfg.Upstream.LLMReadTimeoutRaw != "" {
		cfg.Upstream.LLMReadTimeout, err = time.ParseDuration(cfg.Upstream.LLMReadTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing llm_read_timeout %q: %w", cfg.Upstream.LLMReadTimeoutRaw, err)
		}
	}

	if cfg.Upstream.RetrieverReadTimeoutRaw != "" {
		cfg.Upstream.RetrieverReadTimeout, err = time.ParseDuration(cfg.Upstream.RetrieverReadTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing retriever_read_timeout %q: %w", cfg.Upstream.RetrieverReadTimeoutRaw, err)
		}
	}

	return nil
}

// applyDefaults fills in upstream timeouts left unset by the config file.
func applyDefaults(cfg *Config) {
	if cfg.Upstream.ConnectTimeout == 0 {
		cfg.Upstream.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Upstream.LLMReadTimeout == 0 {
		cfg.Upstream.LLMReadTimeout = DefaultLLMReadTimeout
	}
	if cfg.Upstream.RetrieverReadTimeout == 0 {
		cfg.Upstream.RetrieverReadTimeout = DefaultRetrieverReadTimeout
	}
}
