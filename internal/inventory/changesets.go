package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/sandplan/internal/aspect"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/revcache"
	"github.com/specialistvlad/sandplan/internal/vcs"
	"golang.org/x/sync/errgroup"
)

// AllBranches selects every branch of the catalog repository.
const AllBranches = "all"

// DefaultParallelism bounds concurrent remote lookups.
const DefaultParallelism = 8

// Inventory walks the catalogs of a Source.
type Inventory struct {
	Source   Source
	Registry *vcs.Registry
	// Cache is optional.
	Cache    *revcache.Cache
	Users    map[string]string
	Platform string
	// DependencyTypes defaults to catalog.InventoryDependencyTypes.
	DependencyTypes catalog.DependencyTypes
	Parallelism     int
}

// Changeset is the remote head revision of one aspect on one branch.
type Changeset struct {
	Branch    string       `json:"branch" yaml:"branch"`
	Name      string       `json:"name" yaml:"name"`
	Type      string       `json:"type" yaml:"type"`
	Repo      catalog.Repo `json:"vcsrepo" yaml:"vcsrepo"`
	Changeset string       `json:"changeset" yaml:"changeset"`
}

func (inv *Inventory) branches(ctx context.Context, only string) ([]string, error) {
	all, err := inv.Source.Branches(ctx)
	if err != nil {
		return nil, err
	}
	if only == "" || only == AllBranches {
		return all, nil
	}
	for _, b := range all {
		if b == only {
			return []string{b}, nil
		}
	}
	return nil, nil
}

func (inv *Inventory) resolver(cat *catalog.Catalog, branch string) *aspect.Resolver {
	types := inv.DependencyTypes
	if types == nil {
		types = catalog.InventoryDependencyTypes()
	}
	return aspect.New(cat, aspect.Request{
		Branch:          branch,
		Platform:        inv.Platform,
		Users:           inv.Users,
		DependencyTypes: types,
	})
}

// Changesets returns the head revision of every aspect reachable from any
// component on branch, or on every branch for AllBranches. Aspects whose
// remote has no such revision are left out. The result is sorted by branch,
// component and type.
func (inv *Inventory) Changesets(ctx context.Context, branch string) ([]Changeset, error) {
	logger := ctxlog.FromContext(ctx)

	branches, err := inv.branches(ctx, branch)
	if err != nil {
		return nil, err
	}

	type key struct{ branch, name, typ string }
	seen := make(map[key]bool)
	var pending []Changeset
	for _, b := range branches {
		cat, err := inv.Source.Catalog(ctx, b)
		if err != nil {
			return nil, err
		}
		r := inv.resolver(cat, b)
		for _, top := range cat.Names() {
			res, err := r.Resolve(ctx, top, catalog.KindCode)
			if err != nil {
				return nil, planerr.WithPrefix(err, fmt.Sprintf("Error with config on branch '%s': ", b))
			}
			for _, a := range res.All() {
				k := key{b, a.Name, a.Type}
				if seen[k] {
					continue
				}
				seen[k] = true
				pending = append(pending, Changeset{Branch: b, Name: a.Name, Type: a.Type, Repo: a.Repo})
			}
		}
	}
	logger.Debug("Looking up changesets.", "branches", len(branches), "aspects", len(pending))

	limit := inv.Parallelism
	if limit <= 0 {
		limit = DefaultParallelism
	}
	found := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range pending {
		g.Go(func() error {
			repo := vcs.Repository{
				Provider: pending[i].Repo.Provider,
				Source:   pending[i].Repo.Source,
				Revision: pending[i].Repo.Revision,
				Type:     pending[i].Type,
			}
			rev, ok, err := inv.Cache.RemoteHead(gctx, inv.Registry, repo)
			if err != nil {
				return err
			}
			pending[i].Changeset = rev
			found[i] = ok && rev != ""
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Changeset, 0, len(pending))
	for i, c := range pending {
		if found[i] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Branch != out[j].Branch {
			return out[i].Branch < out[j].Branch
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}
