package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBox returns a box that contains nothing; expanding it by a point
// yields a zero-size box at that point.
func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewBox creates a box from two corners.
func NewBox(min, max mgl32.Vec3) Box {
	return Box{Min: min, Max: max}
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Max.X() < b.Min.X() || b.Max.Y() < b.Min.Y() || b.Max.Z() < b.Min.Z()
}

// ExpandPoint grows the box to include p.
func (b Box) ExpandPoint(p mgl32.Vec3) Box {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Union grows the box to include other.
func (b Box) Union(other Box) Box {
	if other.IsEmpty() {
		return b
	}
	return b.ExpandPoint(other.Min).ExpandPoint(other.Max)
}

// Center returns the box midpoint.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents.
func (b Box) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Transform returns the AABB of the box after applying m.
func (b Box) Transform(m mgl32.Mat4) Box {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min.X(), b.Min.Y(), b.Min.Z()}
		if i&1 != 0 {
			corner[0] = b.Max.X()
		}
		if i&2 != 0 {
			corner[1] = b.Max.Y()
		}
		if i&4 != 0 {
			corner[2] = b.Max.Z()
		}
		out = out.ExpandPoint(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

// BoundingInfo is the framing summary of a loaded asset.
// Radius is the length of the bounding box diagonal.
type BoundingInfo struct {
	Center mgl32.Vec3
	Radius float32
}

// Info summarises the box. An empty box yields a zero-radius info at the origin.
func (b Box) Info() BoundingInfo {
	if b.IsEmpty() {
		return BoundingInfo{}
	}
	return BoundingInfo{
		Center: b.Center(),
		Radius: b.Size().Len(),
	}
}

// ComputeBounds returns the world-space AABB of every mesh under root.
func ComputeBounds(root *Node) Box {
	box := EmptyBox()
	root.TraverseMeshes(func(n *Node) {
		if n.Bounds.IsEmpty() {
			return
		}
		box = box.Union(n.Bounds.Transform(n.WorldMatrix()))
	})
	return box
}
