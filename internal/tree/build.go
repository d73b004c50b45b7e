package tree

import (
	"context"
	"strings"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/kinds"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

// Build creates the dependency tree of root from its propagated kind map.
//
// A child is placed under the first node that reaches it, each level
// claiming all of its children before any of them is expanded. An edge is
// followed only when its target is consumed as something other than code,
// or when the edge itself is a code edge. Terminal children are marked and
// not expanded. The kind map is not modified.
func Build(ctx context.Context, cat *catalog.Catalog, root string, km kinds.Map) (*Node, error) {
	kind, ok := km[root]
	if !ok {
		return nil, planerr.Configf(planerr.CodeNotFound, "Component '%s' has no resolved kind.", root)
	}

	unclaimed := km.Clone()
	delete(unclaimed, root)

	top := &Node{Name: root, Kind: kind}
	if err := expand(cat, top, unclaimed); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Dependency tree built.", "root", root, "components", len(km)-len(unclaimed))
	return top, nil
}

func expand(cat *catalog.Catalog, parent *Node, unclaimed kinds.Map) error {
	comp, err := cat.Component(parent.Name)
	if err != nil {
		return err
	}

	for _, edge := range comp.Dependencies {
		kind, ok := unclaimed[edge.Component]
		if !ok || (kind == catalog.KindCode && edge.Kind != catalog.KindCode) {
			continue
		}
		child, err := cat.Component(edge.Component)
		if err != nil {
			return err
		}
		parent.Children = append(parent.Children, &Node{
			Name:     edge.Component,
			Kind:     kind,
			Terminal: child.IsTerminal(kind),
		})
		delete(unclaimed, edge.Component)
	}

	for _, c := range parent.Children {
		if c.Terminal {
			continue
		}
		if err := expand(cat, c, unclaimed); err != nil {
			return err
		}
	}
	return nil
}

// BuildBuilt creates the build-up-to tree of root: only built edges are
// followed and components excluded from build-up-to are left out. Unlike
// Build, a component appears under every parent that needs it. A cycle
// not broken by a terminal dependency is a configuration error.
func BuildBuilt(ctx context.Context, cat *catalog.Catalog, root string) (*Node, error) {
	if _, err := cat.Component(root); err != nil {
		return nil, err
	}

	top := &Node{Name: root, Kind: catalog.KindBuilt}
	if err := expandBuilt(cat, top, []string{root}); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Build-up-to tree built.", "root", root)
	return top, nil
}

func expandBuilt(cat *catalog.Catalog, parent *Node, path []string) error {
	comp, err := cat.Component(parent.Name)
	if err != nil {
		return err
	}

	for _, edge := range comp.Dependencies {
		if edge.Kind != catalog.KindBuilt {
			continue
		}
		child, err := cat.Component(edge.Component)
		if err != nil {
			return err
		}
		if child.ExcludedFromBuildUpTo() {
			continue
		}
		parent.Children = append(parent.Children, &Node{
			Name:     child.Name,
			Kind:     catalog.KindBuilt,
			Terminal: child.IsTerminal(catalog.KindBuilt),
		})
	}

	for _, c := range parent.Children {
		if c.Terminal {
			continue
		}
		for i, name := range path {
			if name == c.Name {
				cycle := append(append([]string(nil), path[i:]...), c.Name)
				return planerr.Configf(planerr.CodeCycle, "Dependency cycle detected: %s", strings.Join(cycle, " -> "))
			}
		}
		if err := expandBuilt(cat, c, append(path[:len(path):len(path)], c.Name)); err != nil {
			return err
		}
	}
	return nil
}
