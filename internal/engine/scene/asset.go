package scene

// Asset is one loaded vehicle model with its measured bounds.
type Asset struct {
	Path   string
	Root   *Node
	Box    Box
	Bounds BoundingInfo
}

// NewAsset measures root and wraps it.
func NewAsset(path string, root *Node) *Asset {
	box := ComputeBounds(root)
	return &Asset{
		Path:   path,
		Root:   root,
		Box:    box,
		Bounds: box.Info(),
	}
}

// HasAuthoredLights reports whether the model ships its own lights.
func (a *Asset) HasAuthoredLights() bool {
	return a != nil && a.Root.HasKind(KindLight)
}

// Cameras returns the camera nodes authored in the model, in traversal order.
func (a *Asset) Cameras() []*Node {
	if a == nil || a.Root == nil {
		return nil
	}
	var out []*Node
	a.Root.Traverse(func(n *Node) {
		if n.Kind == KindCamera {
			out = append(out, n)
		}
	})
	return out
}
