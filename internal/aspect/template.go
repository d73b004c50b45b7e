package aspect

import (
	"path/filepath"
	"regexp"
	"slices"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

var (
	componentVar = regexp.MustCompile(`(?i)\$\s*?\{\s*component\s*\}`)
	branchVar    = regexp.MustCompile(`(?i)\$\s*?\{\s*branch\s*\}`)
	builtVar     = regexp.MustCompile(`(?i)\$\s*?\{\s*built\s*\}`)
	userVar      = regexp.MustCompile(`(?i)\$\s*?\{\s*user[^.]*\.\s*([^.\s]+)\s*\.*name\s*\}`)
)

// vars holds the values substituted into one template.
type vars struct {
	component string
	branch    string
	platform  string
	users     map[string]string
	// supported is the component's platforms attribute, nil when unset.
	supported []string
}

func (v vars) expand(s string) (string, error) {
	var undefined string
	s = userVar.ReplaceAllStringFunc(s, func(m string) string {
		provider := userVar.FindStringSubmatch(m)[1]
		name, ok := v.users[provider]
		if !ok {
			if undefined == "" {
				undefined = m
			}
			return m
		}
		return name
	})
	if undefined != "" {
		return "", planerr.Configf(planerr.CodeUndefined,
			"Variable '%s' in the remote config is not defined in the local config.", undefined)
	}
	s = componentVar.ReplaceAllLiteralString(s, v.component)
	s = branchVar.ReplaceAllLiteralString(s, v.branch)
	s = builtVar.ReplaceAllLiteralString(s, v.platform)
	return s, nil
}

// instantiate substitutes every variable of tmpl and computes its paths.
func instantiate(tmpl catalog.AspectTemplate, v vars, sandboxPath string) (Resolved, error) {
	source, err := v.expand(tmpl.Repo.Source)
	if err != nil {
		return Resolved{}, err
	}
	revision, err := v.expand(tmpl.Repo.Revision)
	if err != nil {
		return Resolved{}, err
	}

	out := Resolved{
		Name: v.component,
		Type: tmpl.Type,
		Repo: catalog.Repo{
			Provider: tmpl.Repo.Provider,
			Source:   source,
			Revision: revision,
		},
		BuiltPath: filepath.Join(sandboxPath, v.platform, v.component),
	}
	if tmpl.Type == catalog.KindBuilt {
		out.Path = out.BuiltPath
	} else {
		out.Path = filepath.Join(sandboxPath, tmpl.Type, v.component)
	}
	return out, nil
}

// instantiateAll resolves templates for one component. With the wildcard
// platform, non-built templates resolve once with the wildcard substituted
// and built templates resolve once per platform the component supports,
// typed by it.
func instantiateAll(templates []catalog.AspectTemplate, v vars, sandboxPath string) ([]Resolved, error) {
	var out []Resolved
	var built []catalog.AspectTemplate
	for _, tmpl := range templates {
		if v.platform == catalog.WildcardPlatform && tmpl.Type == catalog.KindBuilt {
			built = append(built, tmpl)
			continue
		}
		r, err := instantiate(tmpl, v, sandboxPath)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if len(built) == 0 {
		return out, nil
	}

	for _, platform := range expandPlatforms(v.supported) {
		pv := v
		pv.platform = platform
		for _, tmpl := range built {
			r, err := instantiate(tmpl, pv, sandboxPath)
			if err != nil {
				return nil, err
			}
			r.Type = platform
			out = append(out, r)
		}
	}
	return out, nil
}

// expandPlatforms returns the concrete platforms a wildcard build expands to,
// in AllPlatforms order. A component that names none of them is expanded
// over every platform.
func expandPlatforms(supported []string) []string {
	var out []string
	for _, p := range catalog.AllPlatforms {
		if slices.Contains(supported, p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return catalog.AllPlatforms
	}
	return out
}
