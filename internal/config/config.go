// Package config loads and writes TOML-based defaults: timezone, EXIF
// batch size, default storage class, and exclude globs. The
// photomanager command does not read this file; its flags carry their
// own defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the on-disk defaults for a PhotoManager instance.
type Config struct {
	TimezoneDefault    string   `toml:"timezone_default"`
	ExifBatchSize      int      `toml:"exif_batch_size"`
	DefaultStorageType string   `toml:"default_storage_type"`
	Excludes           []string `toml:"excludes"`
}

// NewDefault returns the built-in defaults applied when no config file
// is present.
func NewDefault() *Config {
	return &Config{
		TimezoneDefault:    "local",
		ExifBatchSize:      200,
		DefaultStorageType: "HDD",
		Excludes:           []string{".DS_Store", "Thumbs.db"},
	}
}

// Manager handles reading and writing Config.
type Manager struct{}

// Read decodes a Config from r on top of the built-in defaults: a
// field absent from the input keeps its default, while a field set
// explicitly (even to a zero value) takes the input's value.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := NewDefault()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from path. A missing file is not an
// error; it yields the built-in defaults.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return cfg, nil
}

// WriteToFile writes cfg to path, creating intermediate directories as
// needed.
func WriteToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
