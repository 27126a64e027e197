// Package config loads user-overridable settings from a .source-scope.yml
// dotfile. Every setting has a default; a missing or unreadable file is not
// an error.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the dotfile searched for in the working directory, then the
// home directory.
const FileName = ".source-scope.yml"

// Config holds user-overridable settings. Pointer fields distinguish "unset"
// from an explicit zero.
type Config struct {
	// DataDir is where the analysis database lives.
	// Default: ~/.source-scope.
	DataDir string `yaml:"data_dir"`

	// ProfilesDir is where behavior profiles are stored.
	// Default: <data_dir>/profiles.
	ProfilesDir string `yaml:"profiles_dir"`

	// Diagnostics enables debug-level logging.
	// Default: false.
	Diagnostics *bool `yaml:"diagnostics"`

	// CacheSize bounds the in-memory profile cache.
	// Default: 8.
	CacheSize *int `yaml:"cache_size"`

	// CacheTTLMinutes is how long cached profiles stay fresh. Zero disables
	// expiry. Default: 30.
	CacheTTLMinutes *int `yaml:"cache_ttl_minutes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{}
}

// Load reads the dotfile from the working directory, falling back to the
// home directory. Returns defaults if neither exists or the file doesn't
// parse.
func Load() *Config {
	if cwd, err := os.Getwd(); err == nil {
		if cfg, ok := loadFile(filepath.Join(cwd, FileName)); ok {
			return cfg
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if cfg, ok := loadFile(filepath.Join(home, FileName)); ok {
			return cfg
		}
	}
	return Default()
}

// LoadPath reads a specific config file. Returns defaults if it doesn't
// exist or doesn't parse.
func LoadPath(path string) *Config {
	if cfg, ok := loadFile(path); ok {
		return cfg
	}
	return Default()
}

func loadFile(path string) (*Config, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, false // invalid YAML, use defaults
	}
	return cfg, true
}

// EffectiveDataDir returns the configured data directory, or ~/.source-scope
// if not set.
func (c *Config) EffectiveDataDir() string {
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".source-scope"
	}
	return filepath.Join(home, ".source-scope")
}

// EffectiveProfilesDir returns the configured profiles directory, or
// <data_dir>/profiles if not set.
func (c *Config) EffectiveProfilesDir() string {
	if c.ProfilesDir != "" {
		return expandHome(c.ProfilesDir)
	}
	return filepath.Join(c.EffectiveDataDir(), "profiles")
}

// EffectiveDiagnostics returns the configured diagnostics setting, or false
// if not set.
func (c *Config) EffectiveDiagnostics() bool {
	if c.Diagnostics != nil {
		return *c.Diagnostics
	}
	return false
}

// EffectiveCacheSize returns the configured cache bound, or the default (8)
// if not set or not positive.
func (c *Config) EffectiveCacheSize() int {
	if c.CacheSize != nil && *c.CacheSize > 0 {
		return *c.CacheSize
	}
	return 8
}

// EffectiveCacheTTL returns the configured cache TTL, or the default
// (30 minutes) if not set. An explicit zero disables expiry.
func (c *Config) EffectiveCacheTTL() time.Duration {
	if c.CacheTTLMinutes != nil {
		if *c.CacheTTLMinutes <= 0 {
			return 0
		}
		return time.Duration(*c.CacheTTLMinutes) * time.Minute
	}
	return 30 * time.Minute
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
