package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CARVIEWER_"

// Load loads configuration with priority: defaults < file < env < flags.
// The result is validated.
func Load(o *Overrides) (*Config, error) {
	cfg := Default()

	if path := o.Path(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file in effect: the explicit --config path, or the
// first file found in the standard locations, or "".
func (o *Overrides) Path() string {
	if o != nil && o.ConfigPath != "" {
		return o.ConfigPath
	}
	return findConfigFile()
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./carviewer.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "CarViewer")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "CarViewer")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "carviewer")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "carviewer")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// lightingEnv exposes the lighting fields worth overriding from the
// environment without tagging the lighting package.
type lightingEnv struct {
	Preset   string  `env:"LIGHT_PRESET"`
	Exposure float32 `env:"EXPOSURE"`
}

// applyEnv overlays CARVIEWER_* variables. Unset variables leave the
// current values alone.
func applyEnv(cfg *Config) error {
	opts := env.Options{Prefix: EnvPrefix}

	le := lightingEnv{Preset: cfg.Lighting.Preset, Exposure: cfg.Lighting.Exposure}
	targets := []any{&cfg.Viewer, &cfg.Remote, &cfg.Watch, &cfg.Logging, &le}
	for _, t := range targets {
		if err := env.ParseWithOptions(t, opts); err != nil {
			return err
		}
	}
	cfg.Lighting.Preset = le.Preset
	cfg.Lighting.Exposure = le.Exposure
	return nil
}
