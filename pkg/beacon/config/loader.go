package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPrefix namespaces the environment variables read by FromEnv.
const envPrefix = "BEACON_"

// Load reads settings from path (when non-empty) and overlays BEACON_*
// environment variables, so environment settings win over file settings.
func Load(path string) (Config, error) {
	fileCfg := New(nil)
	if path != "" {
		var err error
		fileCfg, err = FromFile(path)
		if err != nil {
			return Config{}, err
		}
	}
	return fileCfg.Merge(FromEnv()), nil
}

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// FromEnv reads settings from BEACON_* environment variables: BEACON_API_KEY,
// BEACON_HOST, BEACON_BATCH_SIZE, BEACON_FLUSH_INTERVAL,
// BEACON_SHUTDOWN_TIMEOUT. Unset and empty variables are omitted, so the
// result merges cleanly over file settings. Values stay strings; the Config
// accessors coerce them on extraction.
func FromEnv() Config {
	m := make(map[string]any)
	for _, key := range settingKeys {
		if v := os.Getenv(envPrefix + strings.ToUpper(key)); v != "" {
			m[key] = v
		}
	}
	return New(m)
}
