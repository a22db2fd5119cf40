// Package config provides configuration management for the link-graph
// indexing service.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ali01/linkweave/internal/gitvault"
)

// Config holds all application configuration loaded from YAML.
type Config struct {
	Server ServerConfig `yaml:"server"` // HTTP tool API settings
	Vault  VaultConfig  `yaml:"vault"`  // Which vault backend to load and from where
	Worker WorkerConfig `yaml:"worker"` // Debounced indexing worker settings
}

// ServerConfig holds HTTP tool API server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// VaultConfig selects and configures the vault backend that loads folder
// and content documents. Exactly one of Git or Local is meaningful,
// selected by Backend.
type VaultConfig struct {
	// Backend is "git" or "local".
	Backend string         `yaml:"backend"`
	Git     gitvault.Config `yaml:"git"`
	Local   LocalVaultConfig `yaml:"local"`
}

// LocalVaultConfig configures loading a vault already present on disk,
// watched in place rather than cloned from a remote.
type LocalVaultConfig struct {
	Path string `yaml:"path"`
}

// WorkerConfig holds debounced indexing worker configuration.
type WorkerConfig struct {
	ReindexOnStartup bool `yaml:"reindex_on_startup"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Vault: VaultConfig{
			Backend: "local",
			Git:     gitvault.DefaultConfig(),
			Local: LocalVaultConfig{
				Path: "./vault",
			},
		},
		Worker: WorkerConfig{
			ReindexOnStartup: true,
		},
	}
}

// LoadFromYAML loads configuration from a YAML file, overlaying it onto
// DefaultConfig.
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is controlled by application
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Vault.Backend {
	case "git":
		if err := c.Vault.Git.Validate(); err != nil {
			return fmt.Errorf("git vault config validation failed: %w", err)
		}
	case "local":
		if c.Vault.Local.Path == "" {
			return fmt.Errorf("vault.local.path is required when backend is 'local'")
		}
	default:
		return fmt.Errorf("invalid vault backend: %q (must be 'git' or 'local')", c.Vault.Backend)
	}

	return nil
}
