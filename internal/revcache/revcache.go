// Package revcache caches live revision lookups.
//
// Build scheduling asks for the live revision of the same upstream aspect
// once per consumer that recorded it. Lookups are network round trips, so
// results are kept in an LRU cache for the lifetime of one planning run and
// concurrent lookups of the same key are collapsed into one.
package revcache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is the number of revisions kept when no size is given.
const DefaultSize = 1024

// Key identifies a revision of a remote repository.
type Key struct {
	Provider string
	Source   string
	Revision string
}

func (k Key) String() string {
	return k.Provider + "|" + k.Source + "|" + k.Revision
}

type result struct {
	revision string
	ok       bool
}

// Fetch performs the actual lookup of a live revision.
type Fetch func(ctx context.Context) (revision string, ok bool, err error)

// Cache is an LRU cache of live revisions. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[Key, result]
	group   singleflight.Group
}

// New creates a cache holding up to size revisions.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[Key, result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached revision for key, calling fetch on a miss. Failed
// lookups are not cached, a missing revision is.
func (c *Cache) Get(ctx context.Context, key Key, fetch Fetch) (string, bool, error) {
	if r, ok := c.entries.Get(key); ok {
		return r.revision, r.ok, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if r, ok := c.entries.Get(key); ok {
			return r, nil
		}
		rev, ok, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		r := result{revision: rev, ok: ok}
		c.entries.Add(key, r)
		return r, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(result)
	return r.revision, r.ok, nil
}
