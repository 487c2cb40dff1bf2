// FILE: lixenwraith/presets/discovery.go
package presets

import (
	"os"
	"path/filepath"
)

// DiscoveryOptions configures discovery of the main config file, the
// user-authored preset that sits between the core and override presets
type DiscoveryOptions struct {
	// Base name of the main config file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search directories, tried before the config directory
	Paths []string

	// Environment variable holding an explicit main config path
	EnvVar string

	// Disabled skips discovery entirely
	Disabled bool
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions() DiscoveryOptions {
	return DiscoveryOptions{
		Name:       "main",
		Extensions: []string{".json", ".jsonc", ".yaml", ".yml", ".toml"},
		EnvVar:     "PRESETS_MAIN_CONFIG",
	}
}

// DiscoverMain finds the main config file for configDir.
// Returns ErrConfigNotFound when there is none; callers treat that as non-fatal.
func DiscoverMain(configDir string, opts DiscoveryOptions) (string, error) {
	if opts.Disabled {
		return "", ErrConfigNotFound
	}

	// Explicit path wins
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			if isFile(path) {
				return absPath(path), nil
			}
			return "", ErrConfigNotFound
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)
	if configDir != "" {
		searchPaths = append(searchPaths, configDir)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if isFile(path) {
				return absPath(path), nil
			}
		}
	}

	return "", ErrConfigNotFound
}

// MainCandidates lists every path DiscoverMain would accept for configDir, in search order
func MainCandidates(configDir string, opts DiscoveryOptions) []string {
	if opts.Disabled {
		return nil
	}
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return []string{absPath(path)}
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)
	if configDir != "" {
		searchPaths = append(searchPaths, configDir)
	}

	var candidates []string
	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			candidates = append(candidates, absPath(filepath.Join(dir, opts.Name+ext)))
		}
	}
	return candidates
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
