package framing

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/carviewer/internal/engine/scene"
)

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

func TestComputeOrdering(t *testing.T) {
	radii := []float32{1e-6, 0.001, 0.5, 1, 3.7, 500, 1e6, 1e30, 1e37, 3e38}
	for _, r := range radii {
		res := Compute(scene.BoundingInfo{Radius: r})
		assert.True(t, finite(res.Near) && finite(res.Far), "r=%v near/far must be finite", r)
		assert.True(t, finite(res.MinDistance) && finite(res.MaxDistance), "r=%v distances must be finite", r)
		assert.Less(t, res.Near, res.Far, "r=%v", r)
		assert.Less(t, res.MinDistance, res.MaxDistance, "r=%v", r)
	}
}

func TestComputeDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		radius float32
	}{
		{"zero", 0},
		{"negative", -5},
		{"nan", float32(math.NaN())},
		{"inf", float32(math.Inf(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(scene.BoundingInfo{Radius: tt.radius})
			assert.Equal(t, float32(MinRadius), res.Radius)
			assert.True(t, finite(res.Near) && finite(res.Far))
			assert.Less(t, res.Near, res.Far)
			assert.Less(t, res.MinDistance, res.MaxDistance)
		})
	}
}

func TestComputeRadius500(t *testing.T) {
	center := mgl32.Vec3{10, -3, 7}
	res := Compute(scene.BoundingInfo{Center: center, Radius: 500})

	want := center.Add(mgl32.Vec3{250, 100, 250})
	assert.True(t, res.Position.ApproxEqualThreshold(want, 1e-3), "position %v, want %v", res.Position, want)
	assert.Equal(t, center, res.Target)
	assert.InDelta(t, 5, res.Near, 1e-4)
	assert.InDelta(t, 50000, res.Far, 1e-1)
	assert.InDelta(t, 500/1.5, res.MinDistance, 1e-3)
	assert.InDelta(t, 750, res.MaxDistance, 1e-3)
}

func TestComputeDeterministic(t *testing.T) {
	info := scene.BoundingInfo{Center: mgl32.Vec3{1, 2, 3}, Radius: 42}
	assert.Equal(t, Compute(info), Compute(info))
}

func TestComputeHugeRadius(t *testing.T) {
	for _, r := range []float32{1e37, 3e38, math.MaxFloat32} {
		res := Compute(scene.BoundingInfo{Center: mgl32.Vec3{1, 2, 3}, Radius: r})
		assert.Equal(t, float32(MaxRadius), res.Radius, "r=%v", r)
		assert.True(t, finite(res.Far), "r=%v far=%v", r, res.Far)
		assert.True(t, finite(res.MaxDistance), "r=%v max=%v", r, res.MaxDistance)
		for i := 0; i < 3; i++ {
			assert.True(t, finite(res.Position[i]), "r=%v position=%v", r, res.Position)
		}
	}

	res := Compute(scene.BoundingInfo{Center: mgl32.Vec3{math.MaxFloat32, 0, 0}, Radius: 3e38})
	assert.Equal(t, mgl32.Vec3{}, res.Center, "center that would push the position out of range")
	assert.True(t, finite(res.Position[0]))
}
