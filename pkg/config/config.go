package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/vmservice"
	ConfigFileName    = "vmservice.yml"
)

// Config holds all vm-service settings.
type Config struct {
	// BindAddress is the address the HTTP server listens on
	BindAddress string `yaml:"bind_address"`

	// Port is the HTTP server port
	Port string `yaml:"port"`

	// DefaultRegion is used when a registration supplies no region
	DefaultRegion string `yaml:"default_region"`

	// Regions is the fixed region list used by the all-regions discovery view
	Regions []string `yaml:"regions"`

	// AggregatorWorkers bounds concurrent provider calls during fan-out
	AggregatorWorkers int `yaml:"aggregator_workers"`

	// ProviderCallTimeoutSeconds is the per-cell timeout for provider calls
	ProviderCallTimeoutSeconds int `yaml:"provider_call_timeout_seconds"`

	// LogLevel is the zerolog level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogPretty enables console-formatted logs
	LogPretty bool `yaml:"log_pretty"`

	// AuditEnabled controls RFC5424 audit event emission
	AuditEnabled bool `yaml:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// NewDefault returns a Config holding the built-in defaults, without
// consulting the config file or environment.
func NewDefault() *Config {
	return newDefault()
}

func newDefault() *Config {
	return &Config{
		BindAddress:                "0.0.0.0",
		Port:                       "5000",
		DefaultRegion:              "us-east-1",
		Regions:                    nil,
		AggregatorWorkers:          8,
		ProviderCallTimeoutSeconds: 15,
		LogLevel:                   "info",
		LogPretty:                  false,
		AuditEnabled:               true,
		sources:                    make(map[string]string),
	}
}

func attributeNames() []string {
	return []string{
		"bind_address", "port", "default_region", "regions",
		"aggregator_workers", "provider_call_timeout_seconds",
		"log_level", "log_pretty", "audit_enabled",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	cfg := newDefault()

	for _, name := range attributeNames() {
		cfg.sources[name] = "default"
	}

	configPath := os.Getenv("VMSERVICE_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(cfg.configFilePath); err == nil {
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", cfg.configFilePath, err)
		}
		cfg.applyFileConfig(&file)
	}

	cfg.applyEnvConfig()

	return cfg, nil
}

// fileConfig mirrors Config for YAML decoding. The booleans are pointers
// so that an explicit false in the file is distinguishable from absence.
type fileConfig struct {
	BindAddress                string   `yaml:"bind_address"`
	Port                       string   `yaml:"port"`
	DefaultRegion              string   `yaml:"default_region"`
	Regions                    []string `yaml:"regions"`
	AggregatorWorkers          int      `yaml:"aggregator_workers"`
	ProviderCallTimeoutSeconds int      `yaml:"provider_call_timeout_seconds"`
	LogLevel                   string   `yaml:"log_level"`
	LogPretty                  *bool    `yaml:"log_pretty"`
	AuditEnabled               *bool    `yaml:"audit_enabled"`
}

func (c *Config) applyFileConfig(file *fileConfig) {
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != "" {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.DefaultRegion != "" {
		c.DefaultRegion = file.DefaultRegion
		c.sources["default_region"] = "file"
	}
	if len(file.Regions) > 0 {
		c.Regions = file.Regions
		c.sources["regions"] = "file"
	}
	if file.AggregatorWorkers != 0 {
		c.AggregatorWorkers = file.AggregatorWorkers
		c.sources["aggregator_workers"] = "file"
	}
	if file.ProviderCallTimeoutSeconds != 0 {
		c.ProviderCallTimeoutSeconds = file.ProviderCallTimeoutSeconds
		c.sources["provider_call_timeout_seconds"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.LogPretty != nil {
		c.LogPretty = *file.LogPretty
		c.sources["log_pretty"] = "file"
	}
	if file.AuditEnabled != nil {
		c.AuditEnabled = *file.AuditEnabled
		c.sources["audit_enabled"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("BIND_ADDRESS"); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = "environment"
	}
	if val := os.Getenv("PORT"); val != "" {
		c.Port = val
		c.sources["port"] = "environment"
	}
	if val := os.Getenv("AWS_DEFAULT_REGION"); val != "" {
		c.DefaultRegion = val
		c.sources["default_region"] = "environment"
	}
	if val := os.Getenv("VMSERVICE_REGIONS"); val != "" {
		c.Regions = splitAndTrim(val)
		c.sources["regions"] = "environment"
	}
	if val := os.Getenv("VMSERVICE_AGGREGATOR_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			c.AggregatorWorkers = i
			c.sources["aggregator_workers"] = "environment"
		}
	}
	if val := os.Getenv("VMSERVICE_PROVIDER_CALL_TIMEOUT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			c.ProviderCallTimeoutSeconds = i
			c.sources["provider_call_timeout_seconds"] = "environment"
		}
	}
	if val := os.Getenv("VMSERVICE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("VMSERVICE_LOG_PRETTY"); val != "" {
		c.LogPretty = val == "true" || val == "1"
		c.sources["log_pretty"] = "environment"
	}
	if val := os.Getenv("VMSERVICE_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = val != "false" && val != "0"
		c.sources["audit_enabled"] = "environment"
	}
}

// ProviderCallTimeout returns the per-cell provider call timeout as a duration.
func (c *Config) ProviderCallTimeout() time.Duration {
	return time.Duration(c.ProviderCallTimeoutSeconds) * time.Second
}

// ConfigFilePath returns the path to the config file.
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute.
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Validate checks config values that have a constrained shape.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if c.AggregatorWorkers < 1 {
		return fmt.Errorf("aggregator_workers must be at least 1, got %d", c.AggregatorWorkers)
	}
	if c.ProviderCallTimeoutSeconds < 1 {
		return fmt.Errorf("provider_call_timeout_seconds must be at least 1, got %d", c.ProviderCallTimeoutSeconds)
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
