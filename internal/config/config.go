package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File holds the persisted defaults the CLI falls back to when a flag
// is not given. Values the core consumes are passed in explicitly; this
// package only loads and saves them.
type File struct {
	// Template is the default filename pattern.
	Template string `yaml:"template"`
	// Organize is the default organization mode (none, year, year-month, date).
	Organize string `yaml:"organize"`
	// BackupBucket is the default S3 bucket for the backup command.
	BackupBucket string `yaml:"backup_bucket"`
	// MaxConcurrent is the default worker count for backups.
	MaxConcurrent int `yaml:"max_concurrent"`
	// UseCache enables the capture-date probe cache.
	UseCache bool `yaml:"use_cache"`
}

// Default returns the built-in configuration.
func Default() *File {
	return &File{
		Organize:      "none",
		MaxConcurrent: 5,
	}
}

// Path returns the location of the config file.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mediarename.yaml"
	}
	return filepath.Join(home, ".mediarename.yaml")
}

// Load reads the config file, returning built-in defaults when it does
// not exist.
func Load() (*File, error) {
	return loadFrom(Path())
}

func loadFrom(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config file.
func Save(cfg *File) error {
	return saveTo(Path(), cfg)
}

func saveTo(path string, cfg *File) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
