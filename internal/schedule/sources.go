package schedule

import (
	"context"

	"github.com/specialistvlad/sandplan/internal/aspect"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/revcache"
	"github.com/specialistvlad/sandplan/internal/sourceid"
	"github.com/specialistvlad/sandplan/internal/vcs"
)

// AspectSources answers manifest and live revision queries by resolving
// the aspects involved and asking their version-control providers.
type AspectSources struct {
	Resolver *aspect.Resolver
	Registry *vcs.Registry
	// Cache is optional.
	Cache *revcache.Cache
}

// PublishedSources reads the manifest recorded in the built aspect of
// component.
func (a *AspectSources) PublishedSources(ctx context.Context, component string) ([]sourceid.Entry, error) {
	built, err := a.aspect(ctx, component, catalog.KindBuilt)
	if err != nil {
		return nil, err
	}
	p, err := a.Registry.Open(vcs.ForAspect(built))
	if err != nil {
		return nil, err
	}
	return p.PublishedSources(ctx)
}

// LiveRevision returns the remote head revision of the kind aspect of
// component.
func (a *AspectSources) LiveRevision(ctx context.Context, component, kind string) (string, bool, error) {
	resolved, err := a.aspect(ctx, component, kind)
	if err != nil {
		return "", false, err
	}
	return a.Cache.RemoteHead(ctx, a.Registry, vcs.ForAspect(resolved))
}

// aspect resolves component through kind and returns its aspect of that
// kind. A built kind also matches a platform-typed aspect.
func (a *AspectSources) aspect(ctx context.Context, component, kind string) (aspect.Resolved, error) {
	resolved, err := a.Resolver.ResolveOne(ctx, component, kind)
	if err != nil {
		return aspect.Resolved{}, err
	}
	for _, r := range resolved {
		if r.Type == kind || (kind == catalog.KindBuilt && catalog.IsPlatform(r.Type)) {
			return r, nil
		}
	}
	return aspect.Resolved{}, planerr.Configf(planerr.CodeNotFound,
		"Component %s has no aspect of type %s.", component, kind)
}
