package viewer

import (
	"github.com/Faultbox/carviewer/internal/config"
	"github.com/Faultbox/carviewer/internal/engine/camera"
	"github.com/Faultbox/carviewer/internal/engine/lighting"
	"github.com/Faultbox/carviewer/internal/engine/material"
	"github.com/Faultbox/carviewer/internal/engine/vehicle"
)

// Settings are the tunable viewer parameters. Fields may be edited in place
// from the frame goroutine; call NotifyChanged afterwards.
type Settings struct {
	Lighting       lighting.Settings
	Policy         material.Policy
	EnvironmentMap string
	Background     string
	Orbit          camera.OrbitConfig
	Wheels         vehicle.Config
	Poses          []camera.PoseSpec
	Ease           string
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

// SettingsFromConfig extracts the runtime-tunable part of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	poses := make([]camera.PoseSpec, len(cfg.Poses))
	copy(poses, cfg.Poses)
	return Settings{
		Lighting:       cfg.Lighting,
		Policy:         cfg.Materials,
		EnvironmentMap: cfg.Viewer.EnvironmentMap,
		Background:     cfg.Viewer.Background,
		Orbit:          cfg.Orbit,
		Wheels:         cfg.Wheels,
		Poses:          poses,
		Ease:           cfg.Viewer.Ease,
	}
}
