// Package config loads the connector configuration from YAML with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete connector configuration.
type Config struct {
	Server         ServerConfig      `yaml:"server"`
	Gateway        GatewayConfig     `yaml:"gateway"`
	Credentials    CredentialsConfig `yaml:"credentials"`
	LanguageServer LangServerConfig  `yaml:"language_server"`
}

// ServerConfig configures the MCP server surface.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "sse"
	Address   string `yaml:"address"`
}

// GatewayConfig configures how file sources reach the cluster.
type GatewayConfig struct {
	// Protocol selects the file-source factory: "webhdfs" (through the
	// gateway) or "hdfs" (direct namenode).
	Protocol string `yaml:"protocol"`

	// BasePath roots the exposed HDFS tree.
	BasePath string `yaml:"base_path"`
}

// CredentialsConfig configures the credential store backend.
type CredentialsConfig struct {
	// Backend is "memory" or "keyring".
	Backend string `yaml:"backend"`

	// Service is the OS keyring service name for the keyring backend.
	Service string `yaml:"service"`
}

// LangServerConfig configures the data-catalog language server bootstrap.
type LangServerConfig struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
	Env  []string `yaml:"env"`
}

// Load reads, expands and validates a config file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ApplyDefaults applies default values to the config.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "bigdata-connector"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Gateway.Protocol == "" {
		cfg.Gateway.Protocol = "webhdfs"
	}
	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = "memory"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Sprintf("server.transport must be stdio or sse, got %q", c.Server.Transport))
	}

	switch c.Gateway.Protocol {
	case "webhdfs", "hdfs", "memory":
	default:
		errs = append(errs, fmt.Sprintf("gateway.protocol must be webhdfs, hdfs or memory, got %q", c.Gateway.Protocol))
	}

	switch c.Credentials.Backend {
	case "memory", "keyring":
	default:
		errs = append(errs, fmt.Sprintf("credentials.backend must be memory or keyring, got %q", c.Credentials.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
