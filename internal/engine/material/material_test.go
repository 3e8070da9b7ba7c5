package material

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/carviewer/internal/engine/scene"
)

func unitBox() scene.Box {
	return scene.NewBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
}

func snapshot(root *scene.Node) []scene.Material {
	var out []scene.Material
	root.TraverseMeshes(func(n *scene.Node) {
		for _, m := range n.Materials {
			c := *m
			out = append(out, c)
		}
	})
	return out
}

func TestRuleMatches(t *testing.T) {
	r := Rule{Match: []string{"Paint"}, Ignore: []string{"underbody"}}

	tests := []struct {
		name string
		want bool
	}{
		{"CarPaint_Red", true},
		{"BODY_PAINT", true},
		{"Underbody_Paint", false},
		{"glass", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Matches(tt.name), "Matches(%q)", tt.name)
	}
}

func TestPolicyFirstRuleWins(t *testing.T) {
	p := Policy{Rules: []Rule{
		{Match: []string{"glass"}, Metalness: 0.1},
		{Match: []string{"glass"}, Metalness: 0.9},
	}}
	rule, ok := p.Lookup("Front_Glass")
	require.True(t, ok)
	assert.Equal(t, float32(0.1), rule.Metalness)
}

func TestApplyEnvironment(t *testing.T) {
	env := &scene.Texture{Name: "envReflection"}
	paint := scene.NewMaterial("CarPaint")
	tire := scene.NewMaterial("Tire_Rubber")
	tire.EnvMap = env
	seat := scene.NewMaterial("Seat_Fabric")
	seat.Map = &scene.Texture{Name: "fabric"}
	seat.Metalness = 0.42

	root := scene.NewGroup("car")
	body := scene.NewMesh("body", unitBox(), paint)
	wheel := scene.NewMesh("wheel", unitBox(), tire, paint)
	interior := scene.NewMesh("interior", unitBox(), seat)
	root.Add(body)
	body.Add(wheel)
	root.Add(interior)

	st := ApplyEnvironment(root, env, DefaultPolicy())

	assert.Equal(t, 3, st.Meshes)
	assert.Equal(t, 4, st.Materials)
	assert.Equal(t, 3, st.Matched)
	assert.Equal(t, 1, st.Encoded)

	assert.Same(t, env, paint.EnvMap)
	assert.Equal(t, float32(0.6), paint.Metalness)
	assert.True(t, paint.NeedsUpdate)

	assert.Nil(t, tire.EnvMap, "reflection disabled for rubber")
	assert.Equal(t, float32(0.9), tire.Roughness)

	// Unmatched: only encoding normalisation.
	assert.Nil(t, seat.EnvMap)
	assert.Equal(t, float32(0.42), seat.Metalness)
	assert.Equal(t, scene.SRGBEncoding, seat.Map.Encoding)
}

func TestApplyEnvironmentIdempotent(t *testing.T) {
	env := &scene.Texture{Name: "env"}
	root := scene.NewGroup("car")
	root.Add(scene.NewMesh("a", unitBox(), scene.NewMaterial("glass"), scene.NewMaterial("chrome_trim")))
	lamp := scene.NewMaterial("Headlight")
	lamp.EmissiveMap = &scene.Texture{Name: "lamp_emissive"}
	root.Add(scene.NewMesh("b", unitBox(), lamp, scene.NewMaterial("misc")))

	ApplyEnvironment(root, env, DefaultPolicy())
	first := snapshot(root)
	ApplyEnvironment(root, env, DefaultPolicy())
	second := snapshot(root)

	assert.Equal(t, first, second)
}

func TestApplyEnvironmentUntouchedWithoutTextures(t *testing.T) {
	plain := scene.NewMaterial("misc")
	before := *plain
	root := scene.NewMesh("m", unitBox(), plain)

	ApplyEnvironment(root, &scene.Texture{}, DefaultPolicy())
	assert.Equal(t, before, *plain)
}

func TestApplyEnvironmentSkipsUnlit(t *testing.T) {
	env := &scene.Texture{Name: "env"}
	glass := scene.NewMaterial("glass")
	glass.Type = scene.MaterialUnlit
	glass.Map = &scene.Texture{Name: "tint"}
	paint := scene.NewMaterial("CarPaint")
	root := scene.NewMesh("body", unitBox(), glass, paint)

	st := ApplyEnvironment(root, env, DefaultPolicy())

	assert.Equal(t, 1, st.Matched)
	assert.Equal(t, 1, st.Encoded)
	assert.Nil(t, glass.EnvMap)
	assert.Equal(t, float32(1), glass.Metalness)
	assert.Equal(t, float32(1), glass.Roughness)
	assert.Equal(t, scene.SRGBEncoding, glass.Map.Encoding)
	assert.Same(t, env, paint.EnvMap)
}

func TestApplyEnvironmentNilRoot(t *testing.T) {
	assert.Equal(t, Stats{}, ApplyEnvironment(nil, nil, DefaultPolicy()))
}
