// Package material applies environment reflections and shading overrides to
// loaded materials using a declarative, name-matched policy table.
package material

import "strings"

// Rule describes the shading applied to materials whose name matches.
type Rule struct {
	// Match lists case-insensitive substrings; any hit selects the rule.
	Match []string `yaml:"match"`
	// Ignore lists substrings that veto the rule even when Match hits.
	Ignore []string `yaml:"ignore"`

	Reflection        bool    `yaml:"reflection"`
	EnvIntensity      float32 `yaml:"env_intensity"`
	Metalness         float32 `yaml:"metalness"`
	Roughness         float32 `yaml:"roughness"`
	EmissiveIntensity float32 `yaml:"emissive_intensity"`
}

// Matches reports whether the rule selects a material with the given name.
func (r Rule) Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, ig := range r.Ignore {
		if ig != "" && strings.Contains(lower, strings.ToLower(ig)) {
			return false
		}
	}
	for _, m := range r.Match {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Policy is an ordered rule table; the first matching rule wins.
type Policy struct {
	Rules []Rule `yaml:"rules"`
}

// Lookup returns the first rule selecting name.
func (p Policy) Lookup(name string) (Rule, bool) {
	for _, r := range p.Rules {
		if r.Matches(name) {
			return r, true
		}
	}
	return Rule{}, false
}

// DefaultPolicy returns the rule table tuned for the stock vehicle asset.
func DefaultPolicy() Policy {
	return Policy{Rules: []Rule{
		{
			Match:      []string{"glass", "window", "windshield"},
			Reflection: true, EnvIntensity: 1.0, Metalness: 0.0, Roughness: 0.0, EmissiveIntensity: 0,
		},
		{
			Match:      []string{"chrome", "rim", "mirror"},
			Reflection: true, EnvIntensity: 1.0, Metalness: 1.0, Roughness: 0.05, EmissiveIntensity: 0,
		},
		{
			Match:      []string{"paint", "body", "carpaint"},
			Ignore:     []string{"underbody"},
			Reflection: true, EnvIntensity: 0.8, Metalness: 0.6, Roughness: 0.2, EmissiveIntensity: 0,
		},
		{
			Match:      []string{"headlight", "taillight", "lamp", "emissive"},
			Reflection: true, EnvIntensity: 0.5, Metalness: 0.1, Roughness: 0.1, EmissiveIntensity: 2.0,
		},
		{
			Match:      []string{"tire", "tyre", "rubber"},
			Reflection: false, EnvIntensity: 0, Metalness: 0.0, Roughness: 0.9, EmissiveIntensity: 0,
		},
	}}
}
