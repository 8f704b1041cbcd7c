// Package config holds the built-in defaults and the optional YAML defaults file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/itsjavi/mediaingest/internal/scan"
)

const (
	AppName      = "mediaingest"
	FileName     = "config.yaml"
	MaxVerbosity = 2
)

// Config is the effective configuration before command-line flags are applied.
type Config struct {
	Destinations []string
	SkipDirs     []string
	// Ledger is the ledger file; empty means next to the executable.
	Ledger string
	// Catalog is the SQLite catalog file; empty disables the catalog.
	Catalog      string
	Verbosity    int
	DryRun       bool
	Reinspect    bool
	ExifTool     bool
	ExifToolPath string
}

// file mirrors the YAML layout. Pointers tell absent keys from zero values.
type file struct {
	Destinations []string `yaml:"destinations"`
	SkipDirs     []string `yaml:"skip_dirs"`
	Ledger       *string  `yaml:"ledger"`
	Catalog      *string  `yaml:"catalog"`
	Verbosity    *int     `yaml:"verbosity"`
	DryRun       *bool    `yaml:"dry_run"`
	Reinspect    *bool    `yaml:"reinspect"`
	ExifTool     *bool    `yaml:"exiftool"`
	ExifToolPath *string  `yaml:"exiftool_path"`
}

func Default() Config {
	return Config{
		Destinations: []string{"<shell:Pictures>"},
		SkipDirs:     []string{"Originals", ".picasaoriginals"},
		Verbosity:    1,
		ExifToolPath: "exiftool",
	}
}

// DefaultPath is the per-user defaults file, e.g. ~/.config/mediaingest/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// Load applies the YAML file at path on top of Default. A missing file is an error
// only when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.apply(data); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) apply(data []byte) error {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if f.Destinations != nil {
		cfg.Destinations = f.Destinations
	}
	if f.SkipDirs != nil {
		cfg.SkipDirs = f.SkipDirs
	}
	setString(&cfg.Ledger, f.Ledger)
	setString(&cfg.Catalog, f.Catalog)
	setString(&cfg.ExifToolPath, f.ExifToolPath)
	if f.Verbosity != nil {
		cfg.Verbosity = *f.Verbosity
	}
	setBool(&cfg.DryRun, f.DryRun)
	setBool(&cfg.Reinspect, f.Reinspect)
	setBool(&cfg.ExifTool, f.ExifTool)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (cfg Config) Validate() error {
	if cfg.Verbosity < 0 || cfg.Verbosity > MaxVerbosity {
		return fmt.Errorf("verbosity must be between 0 and %d, got %d", MaxVerbosity, cfg.Verbosity)
	}
	if _, err := cfg.SkipRules(); err != nil {
		return err
	}
	return nil
}

// SkipRules parses SkipDirs; entries prefixed with "re:" are regular expressions.
func (cfg Config) SkipRules() ([]scan.Rule, error) {
	return scan.ParseRules(cfg.SkipDirs)
}

// Marshal renders cfg as a YAML defaults file.
func (cfg Config) Marshal() ([]byte, error) {
	f := file{
		Destinations: cfg.Destinations,
		SkipDirs:     cfg.SkipDirs,
		Ledger:       &cfg.Ledger,
		Catalog:      &cfg.Catalog,
		Verbosity:    &cfg.Verbosity,
		DryRun:       &cfg.DryRun,
		Reinspect:    &cfg.Reinspect,
		ExifTool:     &cfg.ExifTool,
		ExifToolPath: &cfg.ExifToolPath,
	}
	return yaml.Marshal(&f)
}
