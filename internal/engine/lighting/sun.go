package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Direction converts an azimuth around +Y and an elevation above the horizon
// (both in degrees) into a unit vector pointing towards the light.
// Azimuth 0 points along +Z; 30 degrees gives the classic key light at (0.5, 0, 0.866).
func Direction(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(azimuth) * math.Pi / 180.0
	el := float64(elevation) * math.Pi / 180.0

	return mgl32.Vec3{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Cos(az)),
	}
}

// HexColor converts 0xRRGGBB into an RGB vector in the 0-1 range.
func HexColor(hex uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((hex>>16)&0xFF) / 255,
		float32((hex>>8)&0xFF) / 255,
		float32(hex&0xFF) / 255,
	}
}
