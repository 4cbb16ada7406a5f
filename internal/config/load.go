package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "powder-runner.yaml"

// Load builds the effective configuration: defaults, then the config file at
// path (auto-detected when path is empty, and entirely optional), then the
// environment overlay. A .env file in the working directory is honored for
// local runs.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg *Config

	if path == "" {
		found, err := FindConfigFile()
		if err == nil {
			path = found
		}
	}

	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = New()
	}

	cfg.ApplyEnvOverlay()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile reads and parses the configuration from a YAML file, filling in
// defaults for fields the file leaves unset. It does not validate; Load does.
func LoadFile(path string) (*Config, error) {
	// #nosec G304 -- path comes from the --config flag or auto-detection
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// FindConfigFile searches for a config file: current directory first, then
// walking up the directory tree.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(cwd, DefaultConfigFilename)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent

		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}

// Save writes the configuration to a YAML file. Secrets are excluded by
// their yaml:"-" tags, so the written file is safe to commit.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
