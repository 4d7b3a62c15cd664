// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileMode is the permission used when Save creates the database.
const DefaultFileMode os.FileMode = 0o644

// Config configures a Store. The zero value is usable.
type Config struct {
	// SymmetricPinCompare makes an update with a strictly smaller pin set
	// count as a change. By default only pins missing from the resident
	// entry are detected, so dropping a pin alone does not replace it.
	SymmetricPinCompare bool `yaml:"symmetric_pin_compare"`

	// DisableFileLock skips the advisory <path>.lock taken by Save and Load.
	DisableFileLock bool `yaml:"disable_file_lock"`

	// FileMode is the permission for a newly created database file.
	// Zero value is replaced with DefaultFileMode.
	FileMode os.FileMode `yaml:"file_mode"`

	// Now is the time source. If nil, time.Now is used.
	Now func() time.Time `yaml:"-"`

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger `yaml:"-"`
}

// LoadConfig reads a YAML store configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// withDefaults returns a copy of cfg with unset fields filled in.
func (cfg *Config) withDefaults() Config {
	var out Config
	if cfg != nil {
		out = *cfg
	}
	if out.FileMode == 0 {
		out.FileMode = DefaultFileMode
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}
