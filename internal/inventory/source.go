package inventory

import (
	"context"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/vcs"
)

// Source lists the branches of the catalog repository and loads the catalog
// of one branch.
type Source interface {
	Branches(ctx context.Context) ([]string, error)
	Catalog(ctx context.Context, branch string) (*catalog.Catalog, error)
}

// LoadFunc loads the catalog found at path.
type LoadFunc func(ctx context.Context, path string) (*catalog.Catalog, error)

// RepoSource reads catalogs out of a working copy of the catalog
// repository, checking out each branch in turn. It is not safe for
// concurrent use.
type RepoSource struct {
	Provider    vcs.Provider
	CatalogPath string
	Load        LoadFunc
}

// Branches implements Source.
func (s *RepoSource) Branches(ctx context.Context) ([]string, error) {
	return s.Provider.Branches(ctx)
}

// Catalog implements Source.
func (s *RepoSource) Catalog(ctx context.Context, branch string) (*catalog.Catalog, error) {
	ctxlog.FromContext(ctx).Debug("Switching catalog branch.", "branch", branch)
	if err := s.Provider.Checkout(ctx, branch); err != nil {
		return nil, err
	}
	if err := s.Provider.Update(ctx, false); err != nil {
		return nil, err
	}
	return s.Load(ctx, s.CatalogPath)
}
