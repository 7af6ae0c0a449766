// Package config carries the explicit run configuration that replaces the
// original tool's module-level constant paths, so tests can point every
// component at doubles.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration makes time.Duration readable from YAML in "60s" form.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config locates every external collaborator of a run.
type Config struct {
	ModsDir         string   `yaml:"mods_dir"`     // local mod archives
	DataDir         string   `yaml:"data_dir"`     // base game data tree for core locale files
	CacheDir        string   `yaml:"cache_dir"`    // byte cache root
	Output          string   `yaml:"output"`       // final artifact path
	Checkpoint      string   `yaml:"checkpoint"`   // resumable checkpoint path
	PortalURL       string   `yaml:"portal_url"`   // first catalog page
	CredentialsPath string   `yaml:"credentials"`  // player data file with service credentials
	HTTPTimeout     Duration `yaml:"http_timeout"` // per-request timeout for portal traffic
	WriteSplits     bool     `yaml:"write_splits"` // emit per-locale projections
}

// DefaultConfig returns the conventional game-directory layout.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, ".factorio")
	return &Config{
		ModsDir:         filepath.Join(root, "mods"),
		DataDir:         filepath.Join(root, "data"),
		CacheDir:        filepath.Join(root, "modlocale-cache"),
		Output:          "mod_settings_data.json",
		Checkpoint:      "mod_settings_data.checkpoint.json",
		PortalURL:       "https://mods.factorio.com/api/mods?page_size=max",
		CredentialsPath: filepath.Join(root, "player-data.json"),
		HTTPTimeout:     Duration(60 * time.Second),
		WriteSplits:     true,
	}
}

// Load returns the defaults overlaid with the YAML file at path; an empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
