package lighting

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/carviewer/internal/engine/scene"
)

type exposureRecorder struct {
	values []float32
}

func (r *exposureRecorder) SetExposure(v float32) {
	r.values = append(r.values, v)
}

func lightCount(n *scene.Node) int {
	count := 0
	n.Traverse(func(node *scene.Node) {
		if node.Kind == scene.KindLight {
			count++
		}
	})
	return count
}

func TestDirection(t *testing.T) {
	d := Direction(30, 0)
	assert.InDelta(t, 0.5, d.X(), 1e-4)
	assert.InDelta(t, 0, d.Y(), 1e-4)
	assert.InDelta(t, 0.866, d.Z(), 1e-3)

	up := Direction(0, 90)
	assert.InDelta(t, 1, up.Y(), 1e-4)
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, HexColor(0xFFFFFF))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, HexColor(0xFF0000))
}

func TestSyncLightsDefaultRig(t *testing.T) {
	camera := scene.NewNode("camera", scene.KindCamera)
	rec := &exposureRecorder{}
	m := NewManager(camera, rec)

	asset := scene.NewGroup("car")
	require.NoError(t, m.SyncLights(asset, DefaultSettings()))

	assert.Equal(t, []string{"ambient_light", "main_light"}, m.Rig().Names())
	assert.Equal(t, 2, lightCount(camera))
	assert.Equal(t, []float32{1}, rec.values)

	main := m.Rig().Lights()[1]
	assert.Equal(t, scene.LightDirectional, main.Type)
	assert.InDelta(t, 0.8*math.Pi, main.Node.Light.Intensity, 1e-5)
}

func TestSyncLightsAuthoredWins(t *testing.T) {
	camera := scene.NewNode("camera", scene.KindCamera)
	m := NewManager(camera, nil)

	require.NoError(t, m.SyncLights(scene.NewGroup("car"), DefaultSettings()))
	require.Equal(t, 2, m.Rig().Len())

	asset := scene.NewGroup("car")
	asset.Add(scene.NewLight("headlamp", scene.Light{Type: scene.LightSpot, Intensity: 5}))
	require.NoError(t, m.SyncLights(asset, DefaultSettings()))

	assert.True(t, m.Authored())
	assert.Equal(t, 0, m.Rig().Len())
	assert.Equal(t, 0, lightCount(camera), "previous rig must be detached")
}

func TestSyncLightsNoLeak(t *testing.T) {
	camera := scene.NewNode("camera", scene.KindCamera)
	m := NewManager(camera, nil)
	asset := scene.NewGroup("car")

	a := DefaultSettings()
	b := DefaultSettings()
	b.Preset = PresetStudio
	b.AmbientIntensity = 0.9
	b.Exposure = 1.4

	for i := 0; i < 25; i++ {
		s := a
		if i%2 == 1 {
			s = b
		}
		require.NoError(t, m.SyncLights(asset, s))
		assert.LessOrEqual(t, lightCount(camera), MaxRigSize)
		assert.Equal(t, m.Rig().Len(), lightCount(camera))
	}
}

func TestSyncLightsUnknownPreset(t *testing.T) {
	camera := scene.NewNode("camera", scene.KindCamera)
	m := NewManager(camera, nil)
	require.NoError(t, m.SyncLights(nil, DefaultSettings()))

	s := DefaultSettings()
	s.Preset = "disco"
	assert.Error(t, m.SyncLights(nil, s))
	assert.Equal(t, 0, lightCount(camera))
}

func TestRampFadesIn(t *testing.T) {
	camera := scene.NewNode("camera", scene.KindCamera)
	m := NewManager(camera, nil)

	s := DefaultSettings()
	s.RampSeconds = 0.5
	require.NoError(t, m.SyncLights(nil, s))

	ambient := m.Rig().Lights()[0]
	assert.Equal(t, float32(0), ambient.Node.Light.Intensity)

	m.Update(0.25)
	mid := ambient.Node.Light.Intensity
	assert.Greater(t, mid, float32(0))
	assert.Less(t, mid, s.AmbientIntensity)

	m.Update(0.5)
	assert.Equal(t, s.AmbientIntensity, ambient.Node.Light.Intensity)
}
