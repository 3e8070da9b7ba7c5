package camera

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultPoseName is the pose computed from the asset bounds at load time.
const DefaultPoseName = "first_look"

// Pose is a named camera placement. Poses are immutable once resolved.
type Pose struct {
	Name           string
	Position       mgl32.Vec3
	Target         mgl32.Vec3
	Duration       float32 // transition seconds
	NonInteractive bool    // keep free orbit disabled after arriving
}

// PoseSpec declares a pose relative to the asset: offsets are in units of
// the bounding radius from the bounding center.
type PoseSpec struct {
	Name           string     `yaml:"name"`
	Offset         mgl32.Vec3 `yaml:"offset"`
	TargetOffset   mgl32.Vec3 `yaml:"target_offset"`
	Duration       float32    `yaml:"duration"`
	NonInteractive bool       `yaml:"non_interactive"`
}

// DefaultPoseSpecs returns the curated inspection viewpoints.
func DefaultPoseSpecs() []PoseSpec {
	return []PoseSpec{
		{Name: "front", Offset: mgl32.Vec3{0, 0.12, 0.7}, Duration: 1.2},
		{Name: "rear", Offset: mgl32.Vec3{0, 0.15, -0.7}, Duration: 1.2},
		{Name: "side", Offset: mgl32.Vec3{0.75, 0.13, 0}, Duration: 1.2},
		{Name: "top", Offset: mgl32.Vec3{0, 0.85, 0.012}, Duration: 1.5},
		{
			Name:           "wheel",
			Offset:         mgl32.Vec3{0.38, 0.02, 0.3},
			TargetOffset:   mgl32.Vec3{0.18, -0.12, 0.28},
			Duration:       1.0,
			NonInteractive: true,
		},
		{
			Name:           "interior",
			Offset:         mgl32.Vec3{0.04, 0.08, 0.02},
			TargetOffset:   mgl32.Vec3{0, 0.06, 0.3},
			Duration:       1.4,
			NonInteractive: true,
		},
	}
}

// Resolve places the spec around an asset.
func (s PoseSpec) Resolve(center mgl32.Vec3, radius float32) Pose {
	return Pose{
		Name:           s.Name,
		Position:       center.Add(s.Offset.Mul(radius)),
		Target:         center.Add(s.TargetOffset.Mul(radius)),
		Duration:       s.Duration,
		NonInteractive: s.NonInteractive,
	}
}

// Registry is the fixed table of poses available for one loaded asset.
type Registry struct {
	poses map[string]Pose
	order []string
}

// NewRegistry builds a registry. Names must be unique and non-empty.
func NewRegistry(poses ...Pose) (*Registry, error) {
	r := &Registry{poses: make(map[string]Pose, len(poses))}
	for _, p := range poses {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends p to the registry. Names must be unique and non-empty.
func (r *Registry) Add(p Pose) error {
	if p.Name == "" {
		return fmt.Errorf("pose with empty name")
	}
	if _, dup := r.poses[p.Name]; dup {
		return fmt.Errorf("duplicate pose %q", p.Name)
	}
	if p.Duration < 0 {
		return fmt.Errorf("pose %q has negative duration", p.Name)
	}
	r.poses[p.Name] = p
	r.order = append(r.order, p.Name)
	return nil
}

// BuildRegistry resolves specs around an asset and prepends the default pose.
func BuildRegistry(defaultPose Pose, specs []PoseSpec, center mgl32.Vec3, radius float32) (*Registry, error) {
	poses := make([]Pose, 0, len(specs)+1)
	poses = append(poses, defaultPose)
	for _, s := range specs {
		poses = append(poses, s.Resolve(center, radius))
	}
	return NewRegistry(poses...)
}

// Lookup returns the named pose.
func (r *Registry) Lookup(name string) (Pose, bool) {
	if r == nil {
		return Pose{}, false
	}
	p, ok := r.poses[name]
	return p, ok
}

// Names returns pose names in declaration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedNames returns pose names alphabetically.
func (r *Registry) SortedNames() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}
