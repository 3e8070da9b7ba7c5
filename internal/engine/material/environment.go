package material

import "github.com/Faultbox/carviewer/internal/engine/scene"

// Stats summarises one ApplyEnvironment pass.
type Stats struct {
	Meshes    int
	Materials int // material slots visited, shared materials counted per slot
	Matched   int
	Encoded   int
}

// ApplyEnvironment walks every mesh under root and applies policy to each
// material slot. Matched materials receive the reflection map (or lose it
// when the rule disables reflection) and the rule's shading factors.
// Materials carrying color or emissive textures always get their encoding
// normalised to sRGB. Unlit materials are not shaded, so they only get the
// encoding fix. All writes are plain assignments, so repeated calls
// with the same inputs leave materials unchanged after the first.
func ApplyEnvironment(root *scene.Node, envMap *scene.Texture, policy Policy) Stats {
	var st Stats
	if root == nil {
		return st
	}

	root.TraverseMeshes(func(n *scene.Node) {
		st.Meshes++
		for _, mat := range n.Materials {
			if mat == nil {
				continue
			}
			st.Materials++

			if normalizeEncoding(mat) {
				st.Encoded++
			}
			if mat.Type == scene.MaterialUnlit {
				continue
			}

			rule, ok := policy.Lookup(mat.Name)
			if !ok {
				continue
			}
			st.Matched++

			if rule.Reflection {
				mat.EnvMap = envMap
				mat.EnvMapIntensity = rule.EnvIntensity
			} else {
				mat.EnvMap = nil
				mat.EnvMapIntensity = 0
			}
			mat.Metalness = rule.Metalness
			mat.Roughness = rule.Roughness
			mat.EmissiveIntensity = rule.EmissiveIntensity
			mat.NeedsUpdate = true
		}
	})
	return st
}

// normalizeEncoding forces color textures to sRGB.
func normalizeEncoding(mat *scene.Material) bool {
	if mat.Map == nil && mat.EmissiveMap == nil {
		return false
	}
	if mat.Map != nil {
		mat.Map.Encoding = scene.SRGBEncoding
	}
	if mat.EmissiveMap != nil {
		mat.EmissiveMap.Encoding = scene.SRGBEncoding
	}
	mat.NeedsUpdate = true
	return true
}
