// Package config handles viewer configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/carviewer/internal/engine/camera"
	"github.com/Faultbox/carviewer/internal/engine/lighting"
	"github.com/Faultbox/carviewer/internal/engine/material"
	"github.com/Faultbox/carviewer/internal/engine/vehicle"
)

// Config holds all viewer settings.
type Config struct {
	Viewer    ViewerConfig       `yaml:"viewer"`
	Lighting  lighting.Settings  `yaml:"lighting"`
	Wheels    vehicle.Config     `yaml:"wheels"`
	Orbit     camera.OrbitConfig `yaml:"orbit"`
	Materials material.Policy    `yaml:"materials"`
	Poses     []camera.PoseSpec  `yaml:"poses"`
	Remote    RemoteConfig       `yaml:"remote"`
	Watch     WatchConfig        `yaml:"watch"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// ViewerConfig holds the model and display settings.
type ViewerConfig struct {
	Model          string  `yaml:"model" env:"MODEL"`
	EnvironmentMap string  `yaml:"environment_map" env:"ENV_MAP"`
	Background     string  `yaml:"background" env:"BACKGROUND"` // sky cube, empty for none
	Width          int     `yaml:"width" env:"WIDTH"`
	Height         int     `yaml:"height" env:"HEIGHT"`
	FOV            float32 `yaml:"fov" env:"FOV"` // vertical, degrees
	FPS            int     `yaml:"fps" env:"FPS"`
	InitialPose    string  `yaml:"initial_pose" env:"INITIAL_POSE"`
	Ease           string  `yaml:"ease" env:"EASE"` // pose transition curve
}

// RemoteConfig holds the websocket control server settings.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled" env:"REMOTE_ENABLED"`
	Addr    string `yaml:"addr" env:"REMOTE_ADDR"`
	// AllowLoad lets clients open model files by path.
	AllowLoad bool `yaml:"allow_load" env:"REMOTE_ALLOW_LOAD"`
}

// WatchConfig controls hot reload of the config file and the model.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled" env:"WATCH"`
	Debounce time.Duration `yaml:"debounce" env:"WATCH_DEBOUNCE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" env:"LOG_LEVEL"`
	LogFile string `yaml:"log_file" env:"LOG_FILE"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Model:          "models/car.glb",
			EnvironmentMap: "envReflection",
			Background:     "skyCube",
			Width:          1280,
			Height:         720,
			FOV:            60,
			FPS:            60,
			InitialPose:    camera.DefaultPoseName,
			Ease:           "out-cubic",
		},
		Lighting:  lighting.DefaultSettings(),
		Wheels:    vehicle.DefaultConfig(),
		Orbit:     camera.DefaultOrbitConfig(),
		Materials: material.DefaultPolicy(),
		Poses:     camera.DefaultPoseSpecs(),
		Remote: RemoteConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8765",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
