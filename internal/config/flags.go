package config

import "github.com/spf13/pflag"

// Overrides are command-line values layered over the file and environment.
// Only flags the user actually set take effect.
type Overrides struct {
	ConfigPath string
	Model      string
	Debug      bool
	Preset     string
	Exposure   float32
	FPS        int
	RemoteAddr string
	NoRemote   bool
	NoWatch    bool

	fs *pflag.FlagSet
}

// BindFlags registers the override flags on fs.
func (o *Overrides) BindFlags(fs *pflag.FlagSet) {
	o.fs = fs
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file")
	fs.StringVarP(&o.Model, "model", "m", "", "Path to the glTF/GLB model")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.Preset, "preset", "", "Light rig preset (default, studio)")
	fs.Float32Var(&o.Exposure, "exposure", 0, "Tone-mapping exposure")
	fs.IntVar(&o.FPS, "fps", 0, "Frame rate of the tick loop")
	fs.StringVar(&o.RemoteAddr, "remote", "", "Remote control listen address")
	fs.BoolVar(&o.NoRemote, "no-remote", false, "Disable the remote control server")
	fs.BoolVar(&o.NoWatch, "no-watch", false, "Disable hot reload")
}

// changed reports whether a flag was given. Without a bound flag set any
// non-zero value counts.
func (o *Overrides) changed(name string, nonZero bool) bool {
	if o.fs != nil {
		return o.fs.Changed(name)
	}
	return nonZero
}

// apply applies CLI flag overrides to the config.
func (o *Overrides) apply(cfg *Config) {
	if o == nil {
		return
	}
	if o.changed("debug", o.Debug) && o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.changed("model", o.Model != "") {
		cfg.Viewer.Model = o.Model
	}
	if o.changed("preset", o.Preset != "") {
		cfg.Lighting.Preset = o.Preset
	}
	if o.changed("exposure", o.Exposure != 0) {
		cfg.Lighting.Exposure = o.Exposure
	}
	if o.changed("fps", o.FPS != 0) {
		cfg.Viewer.FPS = o.FPS
	}
	if o.changed("remote", o.RemoteAddr != "") {
		cfg.Remote.Addr = o.RemoteAddr
		cfg.Remote.Enabled = true
	}
	if o.changed("no-remote", o.NoRemote) && o.NoRemote {
		cfg.Remote.Enabled = false
	}
	if o.changed("no-watch", o.NoWatch) && o.NoWatch {
		cfg.Watch.Enabled = false
	}
}
