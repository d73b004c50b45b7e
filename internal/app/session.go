package app

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/facts"
	"github.com/specialistvlad/sandplan/internal/inventory"
	"github.com/specialistvlad/sandplan/internal/loader"
	"github.com/specialistvlad/sandplan/internal/localconf"
	"github.com/specialistvlad/sandplan/internal/vcs"
)

// session is the catalog a command runs against together with the user
// identities its aspect templates need.
type session struct {
	cat   *catalog.Catalog
	users map[string]string
}

// localConfig loads the local config. found is false when no explicit path
// was configured and the default file does not exist.
func (a *App) localConfig(ctx context.Context) (lc *localconf.Config, found bool, err error) {
	path := a.config.LocalConfig
	explicit := path != ""
	if !explicit {
		path = localconf.DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
	}
	lc, err = localconf.Load(ctx, path)
	if err != nil {
		return nil, false, err
	}
	return lc, true, nil
}

// catalogRepo opens the catalog repository named by the local config and
// brings its working copy up to date.
func (a *App) catalogRepo(ctx context.Context, lc *localconf.Config) (vcs.Provider, error) {
	repo := lc.Repository()
	p, err := a.registry.Open(repo)
	if err != nil {
		return nil, err
	}
	if err := vcs.CloneOrUpdate(ctx, p, repo.Path, true); err != nil {
		return nil, err
	}
	return p, nil
}

// openSession loads the catalog of the configured branch. An explicit
// catalog path wins over the catalog repository.
func (a *App) openSession(ctx context.Context) (*session, error) {
	logger := ctxlog.FromContext(ctx)
	lc, found, err := a.localConfig(ctx)
	if err != nil {
		return nil, err
	}

	if a.config.CatalogPath != "" {
		cat, err := loader.Load(ctx, a.config.CatalogPath)
		if err != nil {
			return nil, err
		}
		s := &session{cat: cat, users: map[string]string{}}
		if found {
			s.users = lc.Users()
		}
		logger.Debug("Catalog loaded from path.", "path", a.config.CatalogPath)
		return s, nil
	}
	if !found {
		return nil, errors.New("no catalog path given and no local config found")
	}

	p, err := a.catalogRepo(ctx, lc)
	if err != nil {
		return nil, err
	}
	branches, err := p.Branches(ctx)
	if err != nil {
		return nil, err
	}
	if err := facts.CheckBranch(a.config.Branch, branches); err != nil {
		return nil, err
	}
	if err := p.Checkout(ctx, a.config.Branch); err != nil {
		return nil, err
	}
	cat, err := loader.Load(ctx, lc.CatalogPath())
	if err != nil {
		return nil, err
	}
	logger.Debug("Catalog loaded from catalog repository.", "branch", a.config.Branch)
	return &session{cat: cat, users: lc.Users()}, nil
}

// catalogSource returns the source inventory commands iterate over: every
// branch of the catalog repository, or the single catalog at an explicit
// path served as the configured branch.
func (a *App) catalogSource(ctx context.Context) (inventory.Source, map[string]string, error) {
	lc, found, err := a.localConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	users := map[string]string{}
	if found {
		users = lc.Users()
	}

	if a.config.CatalogPath != "" {
		cat, err := loader.Load(ctx, a.config.CatalogPath)
		if err != nil {
			return nil, nil, err
		}
		branch := a.config.Branch
		if branch == "" || branch == inventory.AllBranches {
			branch = "default"
		}
		return &staticSource{branch: branch, cat: cat}, users, nil
	}
	if !found {
		return nil, nil, errors.New("no catalog path given and no local config found")
	}

	p, err := a.catalogRepo(ctx, lc)
	if err != nil {
		return nil, nil, err
	}
	return &inventory.RepoSource{
		Provider:    p,
		CatalogPath: lc.CatalogPath(),
		Load:        func(ctx context.Context, path string) (*catalog.Catalog, error) { return loader.Load(ctx, path) },
	}, users, nil
}

// staticSource serves one already loaded catalog as a single branch.
type staticSource struct {
	branch string
	cat    *catalog.Catalog
}

func (s *staticSource) Branches(context.Context) ([]string, error) {
	return []string{s.branch}, nil
}

func (s *staticSource) Catalog(_ context.Context, branch string) (*catalog.Catalog, error) {
	if branch != s.branch {
		return nil, facts.CheckBranch(branch, []string{s.branch})
	}
	return s.cat, nil
}
