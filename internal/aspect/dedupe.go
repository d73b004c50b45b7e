package aspect

import (
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

// dedupe collapses the aspects of one component to at most one per type.
// When both a code and a plain built aspect are present, the built one is
// dropped since the sources are checked out anyway. Same-type aspects that
// disagree on provider, source or revision are reported as conflicts and
// the first resolution is kept.
func dedupe(component string, aspects []Resolved) ([]Resolved, []planerr.Conflict) {
	hasCode, hasBuilt := false, false
	for _, a := range aspects {
		switch a.Type {
		case catalog.KindCode:
			hasCode = true
		case catalog.KindBuilt:
			hasBuilt = true
		}
	}

	var order []string
	byType := make(map[string][]Resolved)
	for _, a := range aspects {
		if hasCode && hasBuilt && a.Type == catalog.KindBuilt {
			continue
		}
		if _, seen := byType[a.Type]; !seen {
			order = append(order, a.Type)
		}
		byType[a.Type] = append(byType[a.Type], a)
	}

	out := make([]Resolved, 0, len(order))
	var conflicts []planerr.Conflict
	for _, t := range order {
		group := byType[t]
		out = append(out, group[0])
		if len(group) == 1 {
			continue
		}
		for _, field := range []string{"source", "provider", "revision"} {
			if values := distinct(group, field); len(values) > 1 {
				conflicts = append(conflicts, planerr.Conflict{
					Component: component,
					Type:      t,
					Field:     field,
					Values:    values,
				})
			}
		}
	}
	return out, conflicts
}

func distinct(group []Resolved, field string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, a := range group {
		var v string
		switch field {
		case "source":
			v = a.Repo.Source
		case "provider":
			v = a.Repo.Provider
		case "revision":
			v = a.Repo.Revision
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
