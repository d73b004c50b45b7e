package aspect

import (
	"context"
	"strings"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

// Resolver resolves aspects against one catalog snapshot.
type Resolver struct {
	cat *catalog.Catalog
	req Request
}

// New creates a resolver for the given catalog and request.
func New(cat *catalog.Catalog, req Request) *Resolver {
	if req.DependencyTypes == nil {
		req.DependencyTypes = catalog.DefaultDependencyTypes()
	}
	return &Resolver{cat: cat, req: req}
}

// ResolveOne resolves the aspects of a single component reached through kind,
// without following its dependencies.
func (r *Resolver) ResolveOne(ctx context.Context, component, kind string) ([]Resolved, error) {
	aspects, err := r.resolveComponent(component, kind)
	if err != nil {
		return nil, err
	}
	deduped, conflicts := dedupe(component, aspects)
	if err := planerr.NewConflictError(conflicts); err != nil {
		return nil, err
	}
	return deduped, nil
}

// Resolve resolves component reached through kind and every component
// reachable from it. Once a built edge is crossed, every further component
// is resolved as a built dependency. Recursion stops at terminal
// dependencies; a cycle that no terminal dependency breaks is an error.
func (r *Resolver) Resolve(ctx context.Context, component, kind string) (Resolution, error) {
	logger := ctxlog.FromContext(ctx).With("component", component, "kind", kind)
	logger.Debug("Resolving aspects.", "branch", r.req.Branch, "platform", r.req.Platform)

	w := &walk{
		res:       make(Resolution),
		done:      make(map[visitKey]bool),
		onPath:    make(map[string]bool),
		conflicts: make(map[conflictKey]int),
	}
	if err := r.walk(w, component, kind, false); err != nil {
		return nil, err
	}
	if err := planerr.NewConflictError(w.conflictList); err != nil {
		return nil, err
	}

	logger.Debug("Aspects resolved.", "components", len(w.res))
	return w.res, nil
}

type visitKey struct {
	component string
	kind      string
	built     bool
}

type conflictKey struct {
	component, aspectType, field string
}

// walk is the mutable state of one Resolve call.
type walk struct {
	res          Resolution
	done         map[visitKey]bool
	onPath       map[string]bool
	path         []string
	conflicts    map[conflictKey]int
	conflictList []planerr.Conflict
}

func (w *walk) addConflicts(conflicts []planerr.Conflict) {
	for _, c := range conflicts {
		key := conflictKey{c.Component, c.Type, c.Field}
		idx, ok := w.conflicts[key]
		if !ok {
			w.conflicts[key] = len(w.conflictList)
			w.conflictList = append(w.conflictList, c)
			continue
		}
		existing := &w.conflictList[idx]
		for _, v := range c.Values {
			if !contains(existing.Values, v) {
				existing.Values = append(existing.Values, v)
			}
		}
	}
}

func (r *Resolver) walk(w *walk, name, kind string, builtMode bool) error {
	comp, err := r.cat.Component(name)
	if err != nil {
		return err
	}
	if w.onPath[name] && !comp.IsTerminal(kind) {
		cycle := append(append([]string(nil), w.path[indexOf(w.path, name):]...), name)
		return planerr.Configf(planerr.CodeCycle, "Dependency cycle detected: %s", strings.Join(cycle, " -> "))
	}

	key := visitKey{component: name, kind: kind, built: builtMode}
	if w.done[key] {
		return nil
	}
	w.done[key] = true

	aspects, err := r.resolveComponent(name, kind)
	if err != nil {
		return err
	}
	merged, conflicts := dedupe(name, append(w.res[name], aspects...))
	w.res[name] = merged
	w.addConflicts(conflicts)

	if comp.IsTerminal(kind) {
		return nil
	}

	w.onPath[name] = true
	w.path = append(w.path, name)
	defer func() {
		delete(w.onPath, name)
		w.path = w.path[:len(w.path)-1]
	}()

	for _, dep := range comp.Dependencies {
		if builtMode || kind == catalog.KindBuilt {
			err = r.walk(w, dep.Component, catalog.KindBuilt, true)
		} else {
			err = r.walk(w, dep.Component, dep.Kind, false)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// resolveComponent instantiates the templates the kind catalog names for
// kind, without deduplication.
func (r *Resolver) resolveComponent(name, kind string) ([]Resolved, error) {
	aspectNames, ok := r.req.DependencyTypes[kind]
	if !ok {
		return nil, planerr.Configf(planerr.CodeUndefined, "Dependency type %s is not defined for component %s", kind, name)
	}
	comp, err := r.cat.Component(name)
	if err != nil {
		return nil, err
	}

	templates := effectiveTemplates(r.cat.Aspects, comp.Aspects)
	selected := make([]catalog.AspectTemplate, 0, len(aspectNames))
	for _, aspectName := range aspectNames {
		tmpl, err := pickTemplate(templates, aspectName, name, kind)
		if err != nil {
			return nil, err
		}
		selected = append(selected, tmpl)
	}

	resolved, err := instantiateAll(selected, vars{
		component: name,
		branch:    r.req.Branch,
		platform:  r.req.Platform,
		users:     r.req.Users,
		supported: comp.Platforms(),
	}, r.req.SandboxPath)
	if err != nil {
		return nil, err
	}
	for i := range resolved {
		if resolved[i].Type == catalog.KindBuilt || catalog.IsPlatform(resolved[i].Type) {
			resolved[i].Clone = kind == catalog.KindBuilt
		}
	}
	return resolved, nil
}

// effectiveTemplates returns the global templates with every template that a
// component-local template of the same name overrides replaced by it.
func effectiveTemplates(global, local []catalog.AspectTemplate) []catalog.AspectTemplate {
	if len(local) == 0 {
		return global
	}
	out := make([]catalog.AspectTemplate, 0, len(global)+len(local))
	for _, g := range global {
		overridden := false
		for _, l := range local {
			if l.Name == g.Name {
				overridden = true
				break
			}
		}
		if !overridden {
			out = append(out, g)
		}
	}
	return append(out, local...)
}

func pickTemplate(templates []catalog.AspectTemplate, aspectName, component, kind string) (catalog.AspectTemplate, error) {
	var matched []catalog.AspectTemplate
	for _, t := range templates {
		if t.Name == aspectName {
			matched = append(matched, t)
		}
	}
	switch len(matched) {
	case 0:
		return catalog.AspectTemplate{}, planerr.Configf(planerr.CodeNotFound,
			"The dependency component=%s, type=%s failed because there is no aspect with name %s.", component, kind, aspectName)
	case 1:
		return matched[0], nil
	default:
		return catalog.AspectTemplate{}, planerr.Configf(planerr.CodeDuplicate,
			"The dependency component=%s, type=%s failed because there are more than 1 aspect named %s.", component, kind, aspectName)
	}
}

func contains(values []string, v string) bool {
	return indexOf(values, v) >= 0
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}
