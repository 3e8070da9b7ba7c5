// Package framing derives camera framing from an asset's bounding volume.
package framing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/carviewer/internal/engine/scene"
)

// MinRadius is the smallest radius used for framing. Degenerate bounds are
// clamped to it so every derived distance stays finite and ordered.
const MinRadius = 1e-3

// MaxRadius is the largest radius used for framing. Larger bounds are
// clamped to it so the far plane and the default position stay finite.
const MaxRadius = math.MaxFloat32 / (FarRatio * 2)

// Framing ratios, all relative to the bounding radius.
const (
	NearRatio        = 1.0 / 100
	FarRatio         = 100.0
	MinDistanceRatio = 1 / 1.5
	MaxDistanceRatio = 1.5
)

// MaxPolarAngle keeps the orbiting camera above the ground plane (radians from +Y).
const MaxPolarAngle = 0.9 * math.Pi / 2

// DefaultOffset is the first-look camera offset in units of radius.
var DefaultOffset = mgl32.Vec3{0.5, 0.2, 0.5}

// Result holds the camera parameters for one loaded asset.
type Result struct {
	Center mgl32.Vec3
	Radius float32 // after clamping

	Near        float32
	Far         float32
	MinDistance float32
	MaxDistance float32
	MaxPolar    float32

	// Default pose: camera position and look-at target.
	Position mgl32.Vec3
	Target   mgl32.Vec3
}

// Compute frames the given bounds. It is a pure function of its input.
func Compute(info scene.BoundingInfo) Result {
	r := info.Radius
	if !(r >= MinRadius) || math.IsInf(float64(r), 0) {
		// NaN fails every comparison, so it lands here too.
		r = MinRadius
	}
	if r > MaxRadius {
		r = MaxRadius
	}
	center := info.Center
	for i := 0; i < 3; i++ {
		if !isFinite(center[i]) {
			center = mgl32.Vec3{}
			break
		}
	}

	position := center.Add(DefaultOffset.Mul(r))
	if !isFinite(position[0]) || !isFinite(position[1]) || !isFinite(position[2]) {
		center = mgl32.Vec3{}
		position = DefaultOffset.Mul(r)
	}

	return Result{
		Center:      center,
		Radius:      r,
		Near:        r * NearRatio,
		Far:         r * FarRatio,
		MinDistance: r * MinDistanceRatio,
		MaxDistance: r * MaxDistanceRatio,
		MaxPolar:    MaxPolarAngle,
		Position:    position,
		Target:      center,
	}
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
