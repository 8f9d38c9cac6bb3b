// Package manifest handles midilang.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a midilang.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Source  Source      `toml:"source"`
	Build   Build       `toml:"build"`
	Cache   CacheConfig `toml:"cache"`

	// Dir is the directory containing the midilang.toml file (set at load
	// time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures the program input.
type Source struct {
	// Entry is the MIDI file to compile, relative to the manifest.
	Entry string `toml:"entry"`
}

// Build configures code generation output.
type Build struct {
	// Output is the object file path, relative to the manifest.
	Output string `toml:"output"`
	// Triple is the target machine triple; empty targets the host.
	Triple string `toml:"triple"`
	// TapeSize overrides the statically computed tape length when positive.
	TapeSize int `toml:"tape-size"`
}

// CacheConfig configures the build cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load parses a midilang.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "midilang.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".midilang", "cache.db")
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a midilang.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "midilang.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the configured entry file, or ""
// when no entry is configured.
func (m *Manifest) EntryPath() string {
	if m.Source.Entry == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Source.Entry)
}

// OutputPath returns the absolute path of the configured output file, or ""
// when no output is configured.
func (m *Manifest) OutputPath() string {
	if m.Build.Output == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Build.Output)
}

// CachePath returns the absolute path of the cache database.
func (m *Manifest) CachePath() string {
	return filepath.Join(m.Dir, m.Cache.Path)
}
