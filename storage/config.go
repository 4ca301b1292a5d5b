package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads the configuration at path, or config.json in the base
// directory when path is empty. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
// If the file doesn't exist, it returns default configuration.
// If the file is corrupted, it returns an error.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Decoding onto the defaults leaves absent keys untouched and keeps
	// intentional zero values such as volume=0.
	config := DefaultConfig()
	if isYAML(path) {
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	} else {
		if err := json.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	}
	return config, nil
}

// SaveConfig saves the configuration atomically, in YAML or JSON by the
// extension of path. An empty path means config.json in the base
// directory.
func SaveConfig(path string, config *Config) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if !isYAML(path) {
		return AtomicWriteJSON(path, config)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return atomicWrite(path, data)
}

// CreateConfigIfMissing creates a default config file at path if it
// doesn't exist
func CreateConfigIfMissing(path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return SaveConfig(path, DefaultConfig())
	}
	return nil
}
