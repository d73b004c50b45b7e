// Package kinds decides, for every component reachable from a starting
// point, whether it is consumed as source code or as a prebuilt artifact for
// a concrete platform.
//
// Once a traversal crosses a built edge it stays in built mode: everything
// further down is consumed as a prebuilt artifact, regardless of how the
// edges below are typed.
package kinds

import (
	"context"
	"sort"
	"strings"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

// Map maps a component name to its resolved kind: "code", another catalog
// kind such as "test", or a concrete platform like "built.linux_x86-64".
type Map map[string]string

// Names returns the components of m in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mode is the traversal state threaded through the walk by value.
type mode struct {
	built bool
}

type visitKey struct {
	component string
	kind      string
	mode      mode
}

type propagation struct {
	cat      *catalog.Catalog
	platform string
	kinds    Map
	done     map[visitKey]bool
	onPath   map[string]bool
	path     []string
}

// Propagate walks the catalog from start, reached through startKind, and
// resolves the kind of every transitively reachable component for platform.
//
// A component keeps the first kind assigned to it, unless it is later
// reached as code. Recursion stops at terminal dependencies. A cycle that
// no terminal dependency breaks is reported as a configuration error.
func Propagate(ctx context.Context, cat *catalog.Catalog, start, startKind, platform string) (Map, error) {
	logger := ctxlog.FromContext(ctx).With("component", start, "kind", startKind, "platform", platform)

	p := &propagation{
		cat:      cat,
		platform: platform,
		kinds:    make(Map),
		done:     make(map[visitKey]bool),
		onPath:   make(map[string]bool),
	}
	if err := p.visit(start, startKind, mode{}); err != nil {
		return nil, err
	}

	logger.Debug("Kinds propagated.", "components", len(p.kinds))
	return p.kinds, nil
}

func (p *propagation) visit(name, kind string, m mode) error {
	comp, err := p.cat.Component(name)
	if err != nil {
		return err
	}

	if kind == catalog.KindBuilt || m.built {
		kind = p.platform
	}
	if _, seen := p.kinds[name]; !seen || kind == catalog.KindCode {
		p.kinds[name] = kind
	}

	if comp.IsTerminal(kind) {
		return nil
	}
	if p.onPath[name] {
		cycle := append(append([]string(nil), p.path[indexOf(p.path, name):]...), name)
		return planerr.Configf(planerr.CodeCycle, "Dependency cycle detected: %s", strings.Join(cycle, " -> "))
	}

	key := visitKey{component: name, kind: kind, mode: m}
	if p.done[key] {
		return nil
	}
	p.done[key] = true

	p.onPath[name] = true
	p.path = append(p.path, name)
	defer func() {
		delete(p.onPath, name)
		p.path = p.path[:len(p.path)-1]
	}()

	next := mode{built: m.built || kind == p.platform}
	for _, dep := range comp.Dependencies {
		if err := p.visit(dep.Component, dep.Kind, next); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}
