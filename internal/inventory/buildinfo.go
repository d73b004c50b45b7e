package inventory

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

var sourceRoots = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`.*/reporoot`), "/reporoot"},
	{regexp.MustCompile(`.*/gitroot`), "/gitroot"},
}

// BuildInfo lists, per branch, the components that integrate and have
// platforms, and which of them use each code repository.
type BuildInfo struct {
	// Components maps branch to component name to its attributes.
	Components map[string]map[string]map[string]any `json:"components" yaml:"components"`
	// URLs maps a normalised code source to sorted "component.branch" users.
	URLs map[string][]string `json:"urls" yaml:"urls"`
}

// NormalizeSource strips host specific prefixes from a code source so the
// same repository is reported once. Git sources get the revision appended.
func NormalizeSource(repo catalog.Repo) string {
	source := repo.Source
	for _, r := range sourceRoots {
		source = r.re.ReplaceAllLiteralString(source, r.repl)
	}
	if repo.Provider == "git" {
		source = source + "." + repo.Revision
	}
	return source
}

// BuildInfo collects build info over every branch.
func (inv *Inventory) BuildInfo(ctx context.Context) (*BuildInfo, error) {
	branches, err := inv.branches(ctx, AllBranches)
	if err != nil {
		return nil, err
	}

	info := &BuildInfo{
		Components: make(map[string]map[string]map[string]any),
		URLs:       make(map[string][]string),
	}
	users := make(map[string]map[string]bool)
	for _, b := range branches {
		cat, err := inv.Source.Catalog(ctx, b)
		if err != nil {
			return nil, err
		}
		info.Components[b] = make(map[string]map[string]any)
		r := inv.resolver(cat, b)
		for _, comp := range cat.Components {
			if !comp.Integrates() || len(comp.Platforms()) == 0 {
				continue
			}
			res, err := r.Resolve(ctx, comp.Name, catalog.KindCode)
			if err != nil {
				return nil, planerr.WithPrefix(err, fmt.Sprintf("Error with config on branch '%s': ", b))
			}
			info.Components[b][comp.Name] = comp.Attributes
			for _, a := range res.All() {
				if a.Type != catalog.KindCode {
					continue
				}
				source := NormalizeSource(a.Repo)
				if users[source] == nil {
					users[source] = make(map[string]bool)
				}
				users[source][a.Name+"."+b] = true
			}
		}
	}

	for source, set := range users {
		list := make([]string, 0, len(set))
		for u := range set {
			list = append(list, u)
		}
		sort.Strings(list)
		info.URLs[source] = list
	}
	return info, nil
}
