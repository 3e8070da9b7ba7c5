package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/carviewer/internal/engine/scene"
)

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func sampleDoc() *gltf.Document {
	return &gltf.Document{
		Scene:  intPtr(0),
		Scenes: []*gltf.Scene{{Name: "Car", Nodes: []int{0}}},
		Nodes: []*gltf.Node{
			{Name: "car", Children: []int{1, 2}, Translation: [3]float64{0, 1, 0}},
			{Name: "body", Mesh: intPtr(0)},
			{Name: "WheelFL", Mesh: intPtr(1), Translation: [3]float64{2, 0, 0}, Rotation: [4]float64{0, 0.7071068, 0, 0.7071068}},
		},
		Meshes: []*gltf.Mesh{
			{Name: "body", Primitives: []*gltf.Primitive{
				{Attributes: map[string]int{"POSITION": 0}, Material: intPtr(0)},
				{Attributes: map[string]int{"POSITION": 1}, Material: intPtr(1)},
			}},
			{Name: "wheel", Primitives: []*gltf.Primitive{
				{Attributes: map[string]int{"POSITION": 2}, Material: intPtr(0)},
			}},
		},
		Accessors: []*gltf.Accessor{
			{Min: []float64{-2, 0, -1}, Max: []float64{2, 1, 1}},
			{Min: []float64{-1, 1, -1}, Max: []float64{1, 1.5, 1}},
			{Min: []float64{-0.5, -0.5, -0.5}, Max: []float64{0.5, 0.5, 0.5}},
		},
		Materials: []*gltf.Material{
			{
				Name: "CarPaint",
				PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
					MetallicFactor:   floatPtr(0.2),
					RoughnessFactor:  floatPtr(0.4),
					BaseColorTexture: &gltf.TextureInfo{Index: 0},
				},
			},
			{Name: "Glass", EmissiveTexture: &gltf.TextureInfo{Index: 5}},
		},
		Textures: []*gltf.Texture{{Source: intPtr(0)}},
		Images:   []*gltf.Image{{Name: "paint_albedo"}},
	}
}

func TestConvert(t *testing.T) {
	root, err := Convert(sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, "Car", root.Name)
	assert.Equal(t, 4, root.Count())

	car := root.Find("car")
	require.NotNil(t, car)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, car.Position)

	body := root.Find("body")
	require.NotNil(t, body)
	assert.Equal(t, scene.KindMesh, body.Kind)
	assert.Equal(t, mgl32.Vec3{-2, 0, -1}, body.Bounds.Min)
	assert.Equal(t, mgl32.Vec3{2, 1.5, 1}, body.Bounds.Max)
	require.Len(t, body.Materials, 2)

	paint := body.Materials[0]
	assert.Equal(t, "CarPaint", paint.Name)
	assert.InDelta(t, 0.2, paint.Metalness, 1e-6)
	assert.InDelta(t, 0.4, paint.Roughness, 1e-6)
	require.NotNil(t, paint.Map)
	assert.Equal(t, "paint_albedo", paint.Map.Name)
	assert.Equal(t, scene.LinearEncoding, paint.Map.Encoding)

	glass := body.Materials[1]
	assert.Equal(t, float32(1), glass.Metalness, "glTF default factor")
	require.NotNil(t, glass.EmissiveMap)
	assert.Equal(t, "texture_5", glass.EmissiveMap.Name)

	wheel := root.Find("WheelFL")
	require.NotNil(t, wheel)
	assert.Same(t, paint, wheel.Materials[0], "shared material stays shared")
	rotated := wheel.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
	assert.True(t, rotated.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-4), "got %v", rotated)
}

func TestConvertBounds(t *testing.T) {
	root, err := Convert(sampleDoc())
	require.NoError(t, err)
	box := scene.ComputeBounds(root)
	// Parent offset lifts the body to y 1..2.5 and the wheel to 0.5..1.5.
	assert.InDelta(t, 0.5, box.Min.Y(), 1e-5)
	assert.InDelta(t, 2.5, box.Max.Y(), 1e-5)
	assert.InDelta(t, 2.5, box.Max.X(), 1e-5)
}

func TestConvertMatrixTransform(t *testing.T) {
	doc := &gltf.Document{
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Nodes: []*gltf.Node{{
			Name:   "scaled",
			Matrix: [16]float64{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 5, 6, 7, 1},
		}},
	}
	root, err := Convert(doc)
	require.NoError(t, err)
	n := root.Find("scaled")
	require.NotNil(t, n)
	assert.Equal(t, mgl32.Vec3{5, 6, 7}, n.Position)
	assert.True(t, n.Scale.ApproxEqual(mgl32.Vec3{2, 2, 2}))
	assert.True(t, n.Rotation.ApproxEqualThreshold(mgl32.QuatIdent(), 1e-5))
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(nil)
	assert.ErrorIs(t, err, ErrNoScene)

	_, err = Convert(&gltf.Document{Scene: intPtr(3), Scenes: []*gltf.Scene{{}}})
	assert.ErrorIs(t, err, ErrNoScene)

	cyclic := &gltf.Document{
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Nodes:  []*gltf.Node{{Name: "a", Children: []int{1}}, {Name: "b", Children: []int{0}}},
	}
	_, err = Convert(cyclic)
	assert.Error(t, err)
}

const litModel = `{
  "asset": {"version": "2.0"},
  "extensionsUsed": ["KHR_lights_punctual"],
  "extensions": {"KHR_lights_punctual": {"lights": [
    {"name": "sun", "type": "directional", "color": [1, 0.5, 0.25], "intensity": 3}
  ]}},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "car", "mesh": 0, "children": [1]},
    {"name": "sun", "extensions": {"KHR_lights_punctual": {"light": 0}}}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"componentType": 5126, "count": 3, "type": "VEC3", "min": [-250, -50, -100], "max": [250, 50, 100]}]
}`

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "car.gltf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSyncAuthoredLights(t *testing.T) {
	path := writeModel(t, litModel)
	l := NewLoader()

	asset, err := l.LoadSync(context.Background(), path, nil)
	require.NoError(t, err)
	assert.True(t, asset.HasAuthoredLights())

	sun := asset.Root.Find("sun")
	require.NotNil(t, sun)
	require.NotNil(t, sun.Light)
	assert.Equal(t, scene.LightDirectional, sun.Light.Type)
	assert.Equal(t, float32(3), sun.Light.Intensity)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0.25}, sun.Light.Color)

	assert.Equal(t, mgl32.Vec3{}, asset.Bounds.Center)
	assert.InDelta(t, mgl32.Vec3{500, 100, 200}.Len(), asset.Bounds.Radius, 1e-3)
}

func TestLoadSyncUsesCache(t *testing.T) {
	path := writeModel(t, litModel)
	l := NewLoader()

	a1, err := l.LoadSync(context.Background(), path, nil)
	require.NoError(t, err)
	a2, err := l.LoadSync(context.Background(), path, nil)
	require.NoError(t, err)

	hits, misses := l.Cache().Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.NotSame(t, a1.Root, a2.Root, "each load gets its own graph")
}

func TestCacheInvalidatesOnModTime(t *testing.T) {
	c := NewCache()
	now := time.Now()
	doc := &gltf.Document{}
	c.Set(CacheKey{Path: "a", ModTime: now}, doc)

	got, ok := c.Get(CacheKey{Path: "a", ModTime: now})
	assert.True(t, ok)
	assert.Same(t, doc, got)

	_, ok = c.Get(CacheKey{Path: "a", ModTime: now.Add(time.Second)})
	assert.False(t, ok)

	c.Clear()
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestLoadReportsError(t *testing.T) {
	l := NewLoader()
	errc := make(chan error, 1)
	l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.glb"), Callbacks{
		OnSuccess: func(*scene.Asset) { t.Error("unexpected success") },
		OnError:   func(err error) { errc <- err },
	})
	l.Wait()

	select {
	case err := <-errc:
		assert.Error(t, err)
	default:
		t.Fatal("OnError not called")
	}
}

func TestLoadProgressThenSuccess(t *testing.T) {
	path := writeModel(t, litModel)
	l := NewLoader()

	var progress []float32
	var got *scene.Asset
	l.Load(context.Background(), path, Callbacks{
		OnProgress: func(f float32) { progress = append(progress, f) },
		OnSuccess:  func(a *scene.Asset) { got = a },
		OnError:    func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	l.Wait()

	require.NotNil(t, got)
	assert.Equal(t, path, got.Path)
	require.NotEmpty(t, progress)
	assert.Equal(t, float32(1), progress[len(progress)-1])
}

func TestLoadCancelled(t *testing.T) {
	path := writeModel(t, litModel)
	l := NewLoader()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	l.Load(ctx, path, Callbacks{
		OnSuccess: func(*scene.Asset) { called = true },
		OnError:   func(error) { called = true },
	})
	l.Wait()
	assert.False(t, called)
}
