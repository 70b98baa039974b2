// Package config loads envlsp-index's workspace configuration: which
// features are active, how strict diagnostics should be, and the glob
// patterns that decide whether a file is treated as a .env file rather than
// a source file. It is grounded on the teacher's yaml.v3-based
// configuration loading, adapted from the original's JSON-merge-over-defaults
// scheme (itself sourced from an external crate not present in the
// retrieved pack) to a single YAML document with `yaml:"...,omitempty"`
// defaults, the shape the rest of this pack's configuration-loading code
// uses gopkg.in/yaml.v3 for.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Features toggles optional LSP-surface features.
type Features struct {
	Hover       bool `yaml:"hover"`
	Completion  bool `yaml:"completion"`
	Diagnostics bool `yaml:"diagnostics"`
	Definition  bool `yaml:"definition"`
}

// Strict controls whether a feature only fires on a confident resolution
// or also on a best-effort guess.
type Strict struct {
	Hover      bool `yaml:"hover"`
	Completion bool `yaml:"completion"`
}

// Workspace controls file discovery: which glob patterns name a .env file,
// and which directories indexing should never descend into.
type Workspace struct {
	EnvFiles         []string `yaml:"envFiles"`
	ExcludeDirs      []string `yaml:"excludeDirs"`
	RespectGitignore bool     `yaml:"respectGitignore"`
}

// Resolution controls how aggressively cross-module resolution chases
// imports.
type Resolution struct {
	MaxDepth                int  `yaml:"maxDepth"`
	FollowWildcardReexports bool `yaml:"followWildcardReexports"`
}

// Cache controls the indexer's staleness behavior.
type Cache struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full envlsp-index configuration document.
type Config struct {
	Features   Features   `yaml:"features"`
	Strict     Strict     `yaml:"strict"`
	Workspace  Workspace  `yaml:"workspace"`
	Resolution Resolution `yaml:"resolution"`
	Cache      Cache      `yaml:"cache"`
}

// Default returns the configuration envlsp-index ships with when no
// workspace config file overrides it.
func Default() Config {
	return Config{
		Features: Features{Hover: true, Completion: true, Diagnostics: true, Definition: true},
		Strict:   Strict{Hover: true, Completion: true},
		Workspace: Workspace{
			EnvFiles:         []string{".env", ".env.*", "*.env"},
			ExcludeDirs:      []string{"node_modules", ".git", "dist", "build", "vendor", ".venv", "__pycache__"},
			RespectGitignore: true,
		},
		Resolution: Resolution{MaxDepth: 10, FollowWildcardReexports: true},
		Cache:      Cache{Enabled: true},
	}
}

// configFileNames are tried, in order, at the workspace root.
var configFileNames = []string{".envlsp.yaml", ".envlsp.yml"}

// LoadFromWorkspace looks for a config file at root and merges it over
// Default(); a missing config file is not an error, it just yields the
// defaults unchanged.
func LoadFromWorkspace(root string) (Config, error) {
	cfg := Default()

	for _, name := range configFileNames {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	return cfg, nil
}

// IsEnvFile reports whether name (a base file name, not a path) matches one
// of the configured env-file patterns.
func (c Config) IsEnvFile(name string) bool {
	for _, pattern := range c.Workspace.EnvFiles {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
