package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/venusroot/bootstrap/internal/constants"
)

// Loader locates and loads the bootstrap configuration for one content root.
type Loader struct {
	contentRoot string
}

// NewLoader creates a loader rooted at the bootstrap's content directory.
func NewLoader(contentRoot string) *Loader {
	return &Loader{contentRoot: contentRoot}
}

// ContentRoot returns the directory relative paths are resolved against.
func (l *Loader) ContentRoot() string {
	return l.contentRoot
}

// ConfigPath returns the config file path. VENUS_CONFIG takes precedence
// over <content root>/VenusRootLoader/config.yaml.
func (l *Loader) ConfigPath() string {
	if path := os.Getenv(constants.EnvConfig); path != "" {
		return path
	}
	return filepath.Join(l.contentRoot, constants.ConfigFile)
}

// Load resolves and validates the configuration.
// Returns defaults with env overrides applied when no file exists.
func (l *Loader) Load() (*BootstrapConfig, error) {
	cfg, err := LoadBootstrapConfig(l.ConfigPath())
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Resolve returns path unchanged when absolute, otherwise joined to the content root.
func (l *Loader) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.contentRoot, path)
}
