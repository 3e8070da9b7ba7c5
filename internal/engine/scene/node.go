// Package scene provides the scene graph the viewer core operates on.
// Nodes are plain data: rendering is left to the external renderer.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrMissingNode is returned when an expected named node is absent from a graph.
var ErrMissingNode = errors.New("missing scene node")

// Kind identifies what a node carries.
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindLight
	KindCamera
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindLight:
		return "light"
	case KindCamera:
		return "camera"
	default:
		return "group"
	}
}

// LightType distinguishes the light sources a node may hold.
type LightType int

const (
	LightAmbient LightType = iota
	LightDirectional
	LightPoint
	LightSpot
)

// Light is the marker attached to light nodes.
type Light struct {
	Type      LightType
	Color     mgl32.Vec3 // RGB, 0-1
	Intensity float32
}

// Node is a single element of the scene graph.
type Node struct {
	Name string
	Kind Kind

	// Local transform
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	// Mesh data. A mesh may reference several materials, and materials may be
	// shared between meshes.
	Materials []*Material
	Bounds    Box // local-space AABB of the mesh geometry

	Light *Light

	parent   *Node
	children []*Node
}

// NewNode creates a node with an identity transform.
func NewNode(name string, kind Kind) *Node {
	return &Node{
		Name:     name,
		Kind:     kind,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Bounds:   EmptyBox(),
	}
}

// NewGroup creates an empty group node.
func NewGroup(name string) *Node {
	return NewNode(name, KindGroup)
}

// NewMesh creates a mesh node with the given local bounds and materials.
func NewMesh(name string, bounds Box, materials ...*Material) *Node {
	n := NewNode(name, KindMesh)
	n.Bounds = bounds
	n.Materials = materials
	return n
}

// NewLight creates a light node.
func NewLight(name string, light Light) *Node {
	n := NewNode(name, KindLight)
	n.Light = &light
	return n
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches child to n, detaching it from any previous parent first.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n. Returns false if child was not attached to n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Traverse visits n and all its descendants depth-first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// TraverseMeshes visits every mesh node under n.
func (n *Node) TraverseMeshes(fn func(*Node)) {
	n.Traverse(func(node *Node) {
		if node.Kind == KindMesh {
			fn(node)
		}
	})
}

// Find returns the first node named name in depth-first order, or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// HasKind reports whether any node under n (including n) has the given kind.
func (n *Node) HasKind(kind Kind) bool {
	if n.Kind == kind {
		return true
	}
	for _, c := range n.children {
		if c.HasKind(kind) {
			return true
		}
	}
	return false
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.children {
		total += c.Count()
	}
	return total
}

// LocalMatrix returns T * R * S for the node.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix composes local matrices from the root down to n.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return mgl32.TransformCoordinate(mgl32.Vec3{}, n.WorldMatrix())
}

// WorldForward returns the node's world-space -Z axis, the direction a glTF
// camera looks along. It is zero when the transform collapses the axis.
func (n *Node) WorldForward() mgl32.Vec3 {
	d := n.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	if d.Len() < 1e-9 {
		return mgl32.Vec3{}
	}
	return d.Normalize()
}

// Index resolves each role to the first node with that name.
// Roles that could not be resolved are reported in the returned error, which
// wraps ErrMissingNode; the index still holds every role that was found.
func Index(root *Node, roles ...string) (map[string]*Node, error) {
	index := make(map[string]*Node, len(roles))
	var missing []string
	for _, role := range roles {
		if node := root.Find(role); node != nil {
			index[role] = node
		} else {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return index, &MissingSceneNode{Roles: missing}
	}
	return index, nil
}

// MissingSceneNode lists roles that a lookup could not resolve.
type MissingSceneNode struct {
	Roles []string
}

func (e *MissingSceneNode) Error() string {
	return fmt.Sprintf("%v: %v", ErrMissingNode, e.Roles)
}

func (e *MissingSceneNode) Unwrap() error {
	return ErrMissingNode
}
