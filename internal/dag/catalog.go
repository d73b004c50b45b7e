package dag

import (
	"fmt"

	"github.com/specialistvlad/sandplan/internal/catalog"
)

// EdgeFilter selects the catalog edges that become graph edges.
type EdgeFilter func(owner *catalog.Component, edge catalog.DependencyEdge) bool

// OfKind selects edges of the given kind.
func OfKind(kind string) EdgeFilter {
	return func(_ *catalog.Component, edge catalog.DependencyEdge) bool {
		return edge.Kind == kind
	}
}

// FromCatalog builds a graph with a node per component and an edge for
// every dependency edge accepted by filter. Self edges carry no ordering
// and are skipped.
func FromCatalog(cat *catalog.Catalog, filter EdgeFilter) (*Graph, error) {
	g := New()
	for _, c := range cat.Components {
		g.AddNode(c.Name)
	}
	for _, c := range cat.Components {
		for _, edge := range c.Dependencies {
			if edge.Component == c.Name || !filter(c, edge) {
				continue
			}
			if err := g.AddEdge(edge.Component, c.Name); err != nil {
				return nil, fmt.Errorf("failed to add %s edge %s -> %s: %w", edge.Kind, c.Name, edge.Component, err)
			}
		}
	}
	return g, nil
}

// Built builds the graph of built edges, the ordering constraints of a
// build-up-to schedule.
func Built(cat *catalog.Catalog) (*Graph, error) {
	return FromCatalog(cat, OfKind(catalog.KindBuilt))
}
