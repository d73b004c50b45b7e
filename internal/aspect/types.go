package aspect

import (
	"sort"

	"github.com/specialistvlad/sandplan/internal/catalog"
)

// Request holds everything a resolution needs besides the catalog.
type Request struct {
	Branch string
	// Platform is the concrete build platform, or catalog.WildcardPlatform.
	Platform string
	// Users maps a provider identifier to the user name used for it.
	Users map[string]string
	// SandboxPath is the root under which aspect paths are computed.
	SandboxPath string
	// DependencyTypes defaults to catalog.DefaultDependencyTypes when nil.
	DependencyTypes catalog.DependencyTypes
}

// Resolved is an aspect template with every variable substituted.
type Resolved struct {
	// Name is the owning component.
	Name string `json:"name" yaml:"name"`
	// Type is the aspect kind, or the concrete platform for built aspects
	// expanded from the wildcard platform.
	Type      string       `json:"type" yaml:"type"`
	Repo      catalog.Repo `json:"vcsrepo" yaml:"vcsrepo"`
	Path      string       `json:"path" yaml:"path"`
	BuiltPath string       `json:"built_path" yaml:"built_path"`
	// Clone is set on built aspects materialised through a built edge, as
	// opposed to built aspects that only need their directory laid out.
	Clone bool `json:"clone,omitempty" yaml:"clone,omitempty"`
}

// Resolution maps each resolved component to its aspects.
type Resolution map[string][]Resolved

// Components returns the resolved component names in sorted order.
func (res Resolution) Components() []string {
	names := make([]string, 0, len(res))
	for name := range res {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every resolved aspect ordered by component, then type.
func (res Resolution) All() []Resolved {
	var out []Resolved
	for _, name := range res.Components() {
		out = append(out, res[name]...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// ByType returns the first resolved aspect of the given type, scanning
// components in sorted order.
func (res Resolution) ByType(aspectType string) (Resolved, bool) {
	for _, name := range res.Components() {
		for _, a := range res[name] {
			if a.Type == aspectType {
				return a, true
			}
		}
	}
	return Resolved{}, false
}
