// Package config provides parsing, validation, and convenient access to the
// charon service configuration and the metadata document template.
//
// Configuration lives in a YAML file (charon.yaml by default). Every field
// has a working zero-configuration default so the tool runs without a file;
// the CLI flags override whatever the file supplies.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRootMarker is the path segment that marks the beginning of the
// GAV directory structure inside a release tarball.
const DefaultRootMarker = "maven-repository"

// DefaultConfigFile is the config file name looked up under the user's
// charon directory when no explicit path is given.
const DefaultConfigFile = "charon.yaml"

// Config holds the service configuration decoded from YAML.
type Config struct {
	// Bucket is the default target bucket when the CLI does not override it.
	Bucket string `yaml:"bucket"`

	// RootMarker identifies where the GAV structure begins in a tarball.
	RootMarker string `yaml:"root_marker"`

	// IgnorePatterns are regular expressions matched against file names;
	// matching files are never uploaded or deleted.
	IgnorePatterns []string `yaml:"ignore_patterns"`

	// TemplatesDir is where document template overrides are looked up.
	TemplatesDir string `yaml:"templates_dir"`

	// Concurrency bounds the per-item worker pools. Zero means default.
	Concurrency int `yaml:"concurrency"`
}

// Load reads a configuration file and applies defaults for unset fields.
// An empty path falls back to $CHARON_CONFIG, then to
// ~/.charon/charon.yaml; a missing file is not an error and yields the
// defaults, but an unreadable or malformed file is.
func Load(path string) (*Config, error) {
	cfg := &Config{RootMarker: DefaultRootMarker}

	if path == "" {
		path = os.Getenv("CHARON_CONFIG")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".charon", DefaultConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.RootMarker == "" {
		cfg.RootMarker = DefaultRootMarker
	}
	return cfg, nil
}
