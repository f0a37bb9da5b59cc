package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/venusroot/bootstrap/internal/safe"
)

// LoadBootstrapConfig resolves the configuration in three layers:
//  1. Built-in defaults.
//  2. The YAML file at configPath, if it exists.
//  3. VENUS_* environment variables.
func LoadBootstrapConfig(configPath string) (*BootstrapConfig, error) {
	// Layer 1: defaults.
	cfg := DefaultBootstrapConfig()

	// Layer 2: config file.
	if configPath != "" {
		if err := mergeFromFile(configPath, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	// Layer 3: environment.
	if err := LoadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}

// mergeFromFile unmarshals a YAML file over an existing config.
// Keys absent from the file keep their current values.
func mergeFromFile(path string, cfg interface{}) error {
	data, err := safe.ReadFile(path, &safe.ReadOptions{AllowSymlinks: true})
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}
