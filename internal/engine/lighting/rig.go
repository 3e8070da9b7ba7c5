// Package lighting manages the fallback light rig used when an asset ships
// without authored lights.
package lighting

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/engine/scene"
	"github.com/Faultbox/carviewer/internal/engine/tween"
	"github.com/Faultbox/carviewer/internal/logger"
)

// Rig presets.
const (
	PresetDefault = "default"
	PresetStudio  = "studio"
)

// Settings are the tunable lighting parameters. They are plain fields so a
// tuning panel can bind to them directly; changes take effect on the next sync.
type Settings struct {
	Preset           string  `yaml:"preset"`
	Exposure         float32 `yaml:"exposure"`
	AmbientIntensity float32 `yaml:"ambient_intensity"`
	AmbientColor     uint32  `yaml:"ambient_color"`
	DirectIntensity  float32 `yaml:"direct_intensity"`
	DirectColor      uint32  `yaml:"direct_color"`
	RampSeconds      float32 `yaml:"ramp_seconds"` // fade-in of rebuilt lights, 0 snaps
}

// DefaultSettings returns the stock viewer lighting.
func DefaultSettings() Settings {
	return Settings{
		Preset:           PresetDefault,
		Exposure:         1.0,
		AmbientIntensity: 0.3,
		AmbientColor:     0xFFFFFF,
		DirectIntensity:  0.8 * math.Pi,
		DirectColor:      0xFFFFFF,
	}
}

// ExposureSink receives tone-mapping exposure changes (the renderer).
type ExposureSink interface {
	SetExposure(value float32)
}

// Light is one member of the rig.
type Light struct {
	Name      string
	Type      scene.LightType
	Color     mgl32.Vec3
	Intensity float32 // target intensity
	Node      *scene.Node

	ramp tween.Float
}

// Rig is the ordered set of lights currently attached.
type Rig struct {
	lights []*Light
}

// Len returns the number of lights in the rig.
func (r *Rig) Len() int {
	return len(r.lights)
}

// Lights returns the rig members in creation order.
func (r *Rig) Lights() []*Light {
	return r.lights
}

// Names returns the light names in order.
func (r *Rig) Names() []string {
	names := make([]string, len(r.lights))
	for i, l := range r.lights {
		names[i] = l.Name
	}
	return names
}

type lightSpec struct {
	name      string
	kind      scene.LightType
	color     uint32
	intensity float32
	position  mgl32.Vec3
}

// presetSpecs returns the fixed composition of a preset.
func presetSpecs(s Settings) ([]lightSpec, error) {
	switch s.Preset {
	case PresetDefault, "":
		return []lightSpec{
			{name: "ambient_light", kind: scene.LightAmbient, color: s.AmbientColor, intensity: s.AmbientIntensity},
			{name: "main_light", kind: scene.LightDirectional, color: s.DirectColor, intensity: s.DirectIntensity, position: Direction(30, 0)},
		}, nil
	case PresetStudio:
		return []lightSpec{
			{name: "ambient_key", kind: scene.LightAmbient, color: s.AmbientColor, intensity: s.AmbientIntensity},
			{name: "ambient_fill", kind: scene.LightAmbient, color: s.AmbientColor, intensity: s.AmbientIntensity * 0.5},
			{name: "ambient_back", kind: scene.LightAmbient, color: s.DirectColor, intensity: s.AmbientIntensity * 0.25},
		}, nil
	default:
		return nil, fmt.Errorf("unknown light preset %q", s.Preset)
	}
}

// ValidPreset reports whether name selects a known preset. Empty means default.
func ValidPreset(name string) bool {
	switch name {
	case PresetDefault, PresetStudio, "":
		return true
	}
	return false
}

// MaxRigSize is the largest rig any preset builds.
const MaxRigSize = 3

// Manager owns the rig and attaches it to an anchor node, normally the
// camera, so the lights follow the view.
type Manager struct {
	anchor   *scene.Node
	sink     ExposureSink
	rig      Rig
	exposure float32
	authored bool
	log      *zap.Logger
}

// NewManager creates a manager attaching lights under anchor.
// sink may be nil.
func NewManager(anchor *scene.Node, sink ExposureSink) *Manager {
	return &Manager{
		anchor:   anchor,
		sink:     sink,
		exposure: 1,
		log:      logger.Named("lighting"),
	}
}

// Rig returns the current rig.
func (m *Manager) Rig() *Rig {
	return &m.rig
}

// Authored reports whether the last sync deferred to lights found in the asset.
func (m *Manager) Authored() bool {
	return m.authored
}

// Exposure returns the last exposure applied.
func (m *Manager) Exposure() float32 {
	return m.exposure
}

// SyncLights tears down the current rig and, unless asset carries its own
// lights, builds the preset rig for s. Every previous light is detached
// before any new one is attached. On error the rig is left empty.
func (m *Manager) SyncLights(asset *scene.Node, s Settings) error {
	m.Clear()
	m.SetExposure(s.Exposure)

	if asset != nil && asset.HasKind(scene.KindLight) {
		m.authored = true
		m.log.Debug("asset has authored lights, rig left empty")
		return nil
	}
	m.authored = false

	specs, err := presetSpecs(s)
	if err != nil {
		return err
	}

	for _, spec := range specs {
		l := &Light{
			Name:      spec.name,
			Type:      spec.kind,
			Color:     HexColor(spec.color),
			Intensity: spec.intensity,
		}
		start := spec.intensity
		if s.RampSeconds > 0 {
			start = 0
		}
		l.ramp.Set(start)
		if s.RampSeconds > 0 {
			l.ramp.Start(spec.intensity, s.RampSeconds, tween.EaseOutCubic)
		}

		l.Node = scene.NewLight(spec.name, scene.Light{Type: spec.kind, Color: l.Color, Intensity: start})
		l.Node.Position = spec.position
		m.anchor.Add(l.Node)
		m.rig.lights = append(m.rig.lights, l)
	}

	m.log.Debug("light rig built",
		zap.String("preset", s.Preset),
		zap.Strings("lights", m.rig.Names()),
		zap.Float32("exposure", s.Exposure),
	)
	return nil
}

// Clear detaches every rig light.
func (m *Manager) Clear() {
	for _, l := range m.rig.lights {
		l.Node.Detach()
	}
	m.rig.lights = nil
}

// SetExposure forwards the tone-mapping exposure to the renderer.
func (m *Manager) SetExposure(value float32) {
	m.exposure = value
	if m.sink != nil {
		m.sink.SetExposure(value)
	}
}

// Update advances intensity ramps.
func (m *Manager) Update(dt float32) {
	for _, l := range m.rig.lights {
		if l.ramp.Active() {
			l.Node.Light.Intensity = l.ramp.Advance(dt)
		}
	}
}
