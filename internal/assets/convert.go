package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/carviewer/internal/engine/scene"
)

const (
	extLightsPunctual = "KHR_lights_punctual"
	extSpecGloss      = "KHR_materials_pbrSpecularGlossiness"
	extUnlit          = "KHR_materials_unlit"
)

// ErrNoScene is returned for documents without a scene to show.
var ErrNoScene = errors.New("gltf document has no scene")

type punctualLight struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Color     *[3]float64 `json:"color"`
	Intensity *float64    `json:"intensity"`
}

type punctualLights struct {
	Lights []punctualLight `json:"lights"`
}

type nodeLight struct {
	Light *int `json:"light"`
}

type converter struct {
	doc       *gltf.Document
	materials []*scene.Material
	lights    []punctualLight
	visiting  map[int]bool
}

// Convert builds a scene graph from the document's active scene. Mesh bounds
// come from the POSITION accessor min/max, so compressed primitives need no
// decoding. Materials shared between primitives stay shared.
func Convert(doc *gltf.Document) (*scene.Node, error) {
	if doc == nil || len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	idx := 0
	if doc.Scene != nil {
		idx = *doc.Scene
	}
	if idx < 0 || idx >= len(doc.Scenes) {
		return nil, fmt.Errorf("%w: scene index %d out of range", ErrNoScene, idx)
	}
	s := doc.Scenes[idx]

	c := &converter{
		doc:      doc,
		visiting: make(map[int]bool),
	}
	c.convertMaterials()
	if err := c.decodeLights(); err != nil {
		return nil, err
	}

	name := s.Name
	if name == "" {
		name = "scene"
	}
	root := scene.NewGroup(name)
	for _, ni := range s.Nodes {
		n, err := c.node(ni)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

func (c *converter) node(i int) (*scene.Node, error) {
	if i < 0 || i >= len(c.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", i)
	}
	if c.visiting[i] {
		return nil, fmt.Errorf("node %d is its own ancestor", i)
	}
	c.visiting[i] = true
	defer delete(c.visiting, i)

	src := c.doc.Nodes[i]
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", i)
	}

	var n *scene.Node
	switch {
	case src.Mesh != nil:
		box, mats, err := c.mesh(*src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		n = scene.NewMesh(name, box, mats...)
	case src.Camera != nil:
		n = scene.NewNode(name, scene.KindCamera)
	default:
		n = scene.NewGroup(name)
	}
	setTransform(n, src)

	if l, ok, err := c.nodeLight(src); err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	} else if ok {
		if n.Kind == scene.KindGroup {
			n.Kind = scene.KindLight
			n.Light = l
		} else {
			n.Add(scene.NewLight(name+"_light", *l))
		}
	}

	for _, ci := range src.Children {
		child, err := c.node(ci)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

var identity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func setTransform(n *scene.Node, src *gltf.Node) {
	if src.Matrix != [16]float64{} && src.Matrix != identity {
		var m mgl32.Mat4
		for i, v := range src.Matrix {
			m[i] = float32(v)
		}
		n.Position, n.Rotation, n.Scale = decompose(m)
		return
	}
	t := src.Translation
	n.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
	if r := src.Rotation; r != [4]float64{} {
		n.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize()
	}
	if s := src.Scale; s != [3]float64{} {
		n.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
	}
}

// decompose splits a column-major TRS matrix. Shear is discarded.
func decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	pos := m.Col(3).Vec3()
	cols := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	scale := mgl32.Vec3{cols[0].Len(), cols[1].Len(), cols[2].Len()}
	if cols[0].Cross(cols[1]).Dot(cols[2]) < 0 {
		scale[0] = -scale[0]
	}

	var rot mgl32.Mat4
	for c := 0; c < 3; c++ {
		col := cols[c]
		if scale[c] != 0 {
			col = col.Mul(1 / scale[c])
		}
		rot.SetCol(c, col.Vec4(0))
	}
	rot.Set(3, 3, 1)
	return pos, mgl32.Mat4ToQuat(rot).Normalize(), scale
}

func (c *converter) mesh(i int) (scene.Box, []*scene.Material, error) {
	if i < 0 || i >= len(c.doc.Meshes) {
		return scene.Box{}, nil, fmt.Errorf("mesh index %d out of range", i)
	}
	box := scene.EmptyBox()
	var mats []*scene.Material
	seen := make(map[*scene.Material]bool)

	for _, p := range c.doc.Meshes[i].Primitives {
		if ai, ok := p.Attributes["POSITION"]; ok {
			pb, err := c.accessorBounds(ai)
			if err != nil {
				return box, nil, err
			}
			box = box.Union(pb)
		}
		if p.Material != nil && *p.Material >= 0 && *p.Material < len(c.materials) {
			m := c.materials[*p.Material]
			if !seen[m] {
				seen[m] = true
				mats = append(mats, m)
			}
		}
	}
	return box, mats, nil
}

func (c *converter) accessorBounds(i int) (scene.Box, error) {
	if i < 0 || i >= len(c.doc.Accessors) {
		return scene.Box{}, fmt.Errorf("accessor index %d out of range", i)
	}
	a := c.doc.Accessors[i]
	if len(a.Min) < 3 || len(a.Max) < 3 {
		// Bounds are mandatory for POSITION; treat a missing pair as empty.
		return scene.EmptyBox(), nil
	}
	return scene.NewBox(
		mgl32.Vec3{float32(a.Min[0]), float32(a.Min[1]), float32(a.Min[2])},
		mgl32.Vec3{float32(a.Max[0]), float32(a.Max[1]), float32(a.Max[2])},
	), nil
}

func (c *converter) convertMaterials() {
	c.materials = make([]*scene.Material, len(c.doc.Materials))
	for i, src := range c.doc.Materials {
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("material_%d", i)
		}
		m := scene.NewMaterial(name)

		if _, ok := src.Extensions[extSpecGloss]; ok {
			m.Type = scene.MaterialSpecularGlossiness
		} else if _, ok := src.Extensions[extUnlit]; ok {
			m.Type = scene.MaterialUnlit
		}

		if pbr := src.PBRMetallicRoughness; pbr != nil {
			if pbr.MetallicFactor != nil {
				m.Metalness = float32(*pbr.MetallicFactor)
			}
			if pbr.RoughnessFactor != nil {
				m.Roughness = float32(*pbr.RoughnessFactor)
			}
			if pbr.BaseColorTexture != nil {
				m.Map = c.texture(pbr.BaseColorTexture.Index)
			}
		}
		if src.EmissiveTexture != nil {
			m.EmissiveMap = c.texture(src.EmissiveTexture.Index)
		}
		c.materials[i] = m
	}
}

func (c *converter) texture(i int) *scene.Texture {
	name := fmt.Sprintf("texture_%d", i)
	if i >= 0 && i < len(c.doc.Textures) {
		t := c.doc.Textures[i]
		switch {
		case t.Name != "":
			name = t.Name
		case t.Source != nil && *t.Source >= 0 && *t.Source < len(c.doc.Images):
			if img := c.doc.Images[*t.Source]; img.Name != "" {
				name = img.Name
			} else if img.URI != "" && len(img.URI) < 256 {
				name = img.URI
			}
		}
	}
	// glTF leaves the color space to the viewer; the environment pass fixes it.
	return &scene.Texture{Name: name, Encoding: scene.LinearEncoding}
}

func (c *converter) decodeLights() error {
	ext, ok := c.doc.Extensions[extLightsPunctual]
	if !ok {
		return nil
	}
	var pl punctualLights
	if err := decodeExtension(ext, &pl); err != nil {
		return fmt.Errorf("%s: %w", extLightsPunctual, err)
	}
	c.lights = pl.Lights
	return nil
}

func (c *converter) nodeLight(src *gltf.Node) (*scene.Light, bool, error) {
	ext, ok := src.Extensions[extLightsPunctual]
	if !ok {
		return nil, false, nil
	}
	var nl nodeLight
	if err := decodeExtension(ext, &nl); err != nil {
		return nil, false, err
	}
	if nl.Light == nil || *nl.Light < 0 || *nl.Light >= len(c.lights) {
		return nil, false, fmt.Errorf("light index out of range")
	}
	pl := c.lights[*nl.Light]

	l := &scene.Light{Color: mgl32.Vec3{1, 1, 1}, Intensity: 1}
	switch pl.Type {
	case "directional":
		l.Type = scene.LightDirectional
	case "spot":
		l.Type = scene.LightSpot
	default:
		l.Type = scene.LightPoint
	}
	if pl.Color != nil {
		l.Color = mgl32.Vec3{float32(pl.Color[0]), float32(pl.Color[1]), float32(pl.Color[2])}
	}
	if pl.Intensity != nil && !gomath.IsNaN(*pl.Intensity) {
		l.Intensity = float32(*pl.Intensity)
	}
	return l, true, nil
}

// decodeExtension accepts both raw JSON and extension values already decoded
// by a registered gltf extension.
func decodeExtension(v any, out any) error {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, out)
}
