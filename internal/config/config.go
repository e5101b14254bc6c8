// Package config resolves and loads dply's on-disk configuration: display
// defaults and REPL history location, stored as YAML under an XDG-style
// config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// appName is the single source of truth for the application name; derived
// env var names and paths are computed from it.
const appName = "dply"

var envConfigDir = "DPLY_CONFIG_DIR"

// File is the on-disk shape of dply's config.yaml.
type File struct {
	MaxColumns     int    `yaml:"max_columns"`
	MaxColumnWidth int    `yaml:"max_column_width"`
	MaxTableWidth  int    `yaml:"max_table_width"`
	HistoryFile    string `yaml:"history_file,omitempty"`
}

// Default returns the config written by `dply config init` when the user
// accepts every default. HistoryFile is left empty, meaning "use HistoryPath()".
func Default() File {
	return File{MaxColumns: 20, MaxColumnWidth: 32, MaxTableWidth: 200}
}

// Dir returns dply's config directory.
// Priority: $DPLY_CONFIG_DIR > $XDG_CONFIG_HOME/dply > ~/.config/dply
func Dir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the full path to config.yaml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// HistoryPath returns the full path to the REPL history file: f.HistoryFile
// if the loaded config set one, otherwise <config dir>/history.
func HistoryPath(f File) (string, error) {
	if f.HistoryFile != "" {
		return f.HistoryFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// Load reads config.yaml, returning Default() if it does not exist.
func Load() (File, error) {
	path, err := Path()
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Save writes f to config.yaml, creating the config directory if needed.
func Save(f File) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
