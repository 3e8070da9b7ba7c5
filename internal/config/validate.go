package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/carviewer/internal/engine/camera"
	"github.com/Faultbox/carviewer/internal/engine/lighting"
	"github.com/Faultbox/carviewer/internal/engine/tween"
	"github.com/Faultbox/carviewer/internal/logger"
)

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var err error

	if c.Viewer.FPS <= 0 {
		err = multierr.Append(err, fmt.Errorf("viewer.fps must be positive, got %d", c.Viewer.FPS))
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		err = multierr.Append(err, fmt.Errorf("viewer.fov must be in (0, 180), got %g", c.Viewer.FOV))
	}
	if c.Viewer.Width < 0 || c.Viewer.Height < 0 {
		err = multierr.Append(err, fmt.Errorf("viewer size must not be negative"))
	}
	if _, ok := tween.Lookup(c.Viewer.Ease); c.Viewer.Ease != "" && !ok {
		err = multierr.Append(err, fmt.Errorf("viewer.ease %q is unknown", c.Viewer.Ease))
	}

	if !lighting.ValidPreset(c.Lighting.Preset) {
		err = multierr.Append(err, fmt.Errorf("lighting.preset %q is unknown", c.Lighting.Preset))
	}
	if c.Lighting.Exposure < 0 {
		err = multierr.Append(err, fmt.Errorf("lighting.exposure must not be negative"))
	}
	if c.Lighting.RampSeconds < 0 {
		err = multierr.Append(err, fmt.Errorf("lighting.ramp_seconds must not be negative"))
	}

	if c.Wheels.SteerSeconds < 0 {
		err = multierr.Append(err, fmt.Errorf("wheels.steer_seconds must not be negative"))
	}
	if c.Orbit.Damping && c.Orbit.DampingFrequency <= 0 {
		err = multierr.Append(err, fmt.Errorf("orbit.damping_frequency must be positive when damping is on"))
	}

	seen := make(map[string]bool, len(c.Poses))
	for i, p := range c.Poses {
		switch {
		case p.Name == "":
			err = multierr.Append(err, fmt.Errorf("poses[%d] has no name", i))
		case p.Name == camera.DefaultPoseName:
			err = multierr.Append(err, fmt.Errorf("poses[%d]: %q is reserved", i, p.Name))
		case seen[p.Name]:
			err = multierr.Append(err, fmt.Errorf("poses[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true
		if p.Duration < 0 {
			err = multierr.Append(err, fmt.Errorf("pose %q has negative duration", p.Name))
		}
	}
	if name := c.Viewer.InitialPose; name != "" && name != camera.DefaultPoseName && !seen[name] {
		err = multierr.Append(err, fmt.Errorf("viewer.initial_pose %q is not a declared pose", name))
	}

	if !logger.KnownLevel(c.Logging.Level) {
		err = multierr.Append(err, fmt.Errorf("logging.level %q is unknown", c.Logging.Level))
	}
	if c.Remote.Enabled && c.Remote.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("remote.addr is required when remote is enabled"))
	}
	return err
}
