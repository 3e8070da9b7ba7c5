package scene

// Encoding is the color space a texture's texels are stored in.
type Encoding int

const (
	LinearEncoding Encoding = iota
	SRGBEncoding
)

func (e Encoding) String() string {
	if e == SRGBEncoding {
		return "sRGB"
	}
	return "linear"
}

// Texture is a reference to image data owned by the renderer.
type Texture struct {
	Name     string
	Encoding Encoding
}

// MaterialType mirrors the shading models the renderer understands.
type MaterialType int

const (
	MaterialStandard MaterialType = iota
	MaterialSpecularGlossiness
	MaterialUnlit
)

// Material holds the shading parameters the viewer core adjusts.
type Material struct {
	Name string
	Type MaterialType

	Map         *Texture // base color
	EmissiveMap *Texture

	EnvMap            *Texture
	EnvMapIntensity   float32
	Metalness         float32
	Roughness         float32
	EmissiveIntensity float32

	// NeedsUpdate asks the renderer to recompile the material.
	NeedsUpdate bool
}

// NewMaterial creates a standard material with glTF default factors.
func NewMaterial(name string) *Material {
	return &Material{
		Name:              name,
		Type:              MaterialStandard,
		EnvMapIntensity:   1,
		Metalness:         1,
		Roughness:         1,
		EmissiveIntensity: 1,
	}
}
