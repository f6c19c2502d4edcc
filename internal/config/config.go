package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultListenAddr is where the serve command binds when no override
// is given by flag or config file.
const DefaultListenAddr = ":8080"

// Config holds all runtime configuration for a claimload run.
type Config struct {
	DSN         string
	ClaimsFile  string
	DetailsFile string
	Clear       bool
	LogFormat   string // "text" or "json"
	ListenAddr  string
	ExportType  string // "claims" or "details"
	OutPath     string
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.ListenAddr != "" {
		c.ListenAddr = yc.ListenAddr
	}
	return nil
}

// ValidateImport checks that both input files were given and exist.
// A missing path is fatal before any processing begins.
func (c *Config) ValidateImport() error {
	if c.ClaimsFile == "" {
		return fmt.Errorf("--claims-file is required")
	}
	if c.DetailsFile == "" {
		return fmt.Errorf("--details-file is required")
	}
	if _, err := os.Stat(c.ClaimsFile); err != nil {
		return fmt.Errorf("claims file not accessible: %w", err)
	}
	if _, err := os.Stat(c.DetailsFile); err != nil {
		return fmt.Errorf("details file not accessible: %w", err)
	}
	return nil
}

// ValidateDSN checks that a database connection string is present.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

// ValidateExport checks the export type selector.
func (c *Config) ValidateExport() error {
	if c.ExportType != "claims" && c.ExportType != "details" {
		return fmt.Errorf("--type must be claims or details, got %q", c.ExportType)
	}
	return nil
}
