package revcache

import (
	"context"

	"github.com/specialistvlad/sandplan/internal/vcs"
)

// KeyFor returns the cache key of a repository's revision.
func KeyFor(repo vcs.Repository) Key {
	return Key{Provider: repo.Provider, Source: repo.Source, Revision: repo.Revision}
}

// RemoteHead returns the remote head revision of repo through c. A nil
// cache asks the provider directly.
func (c *Cache) RemoteHead(ctx context.Context, reg *vcs.Registry, repo vcs.Repository) (string, bool, error) {
	fetch := func(ctx context.Context) (string, bool, error) {
		p, err := reg.Open(repo)
		if err != nil {
			return "", false, err
		}
		return p.RemoteHeadRevision(ctx)
	}
	if c == nil {
		return fetch(ctx)
	}
	return c.Get(ctx, KeyFor(repo), fetch)
}
