// Package vcstest provides an in-memory vcs.Provider for tests.
package vcstest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/sourceid"
	"github.com/specialistvlad/sandplan/internal/vcs"
)

type remote struct {
	heads    map[string]string
	sources  map[string][]sourceid.Entry
	branches []string
	err      error
	lookups  int
}

// Fake simulates a set of remote repositories and working copies. It is
// safe for concurrent use.
type Fake struct {
	mu        sync.Mutex
	ids       []string
	remotes   map[string]*remote
	heads     map[string]string
	published map[string][]string
}

// New creates a fake serving the given provider identifiers, "git" when
// none are given.
func New(ids ...string) *Fake {
	if len(ids) == 0 {
		ids = []string{"git"}
	}
	return &Fake{
		ids:       ids,
		remotes:   make(map[string]*remote),
		heads:     make(map[string]string),
		published: make(map[string][]string),
	}
}

// Register implements vcs.Module.
func (f *Fake) Register(r *vcs.Registry) {
	for _, id := range f.ids {
		r.RegisterProvider(id, func(repo vcs.Repository) (vcs.Provider, error) {
			return &provider{fake: f, repo: repo}, nil
		})
	}
}

func (f *Fake) remote(source string) *remote {
	r, ok := f.remotes[source]
	if !ok {
		r = &remote{heads: map[string]string{}, sources: map[string][]sourceid.Entry{}}
		f.remotes[source] = r
	}
	return r
}

// SetRemoteHead makes revision of source point at hash.
func (f *Fake) SetRemoteHead(source, revision, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote(source).heads[revision] = hash
}

// SetSources records the published sources of source at revision.
func (f *Fake) SetSources(source, revision string, entries ...sourceid.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote(source).sources[revision] = entries
}

// SetBranches sets the branches of source.
func (f *Fake) SetBranches(source string, branches ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote(source).branches = branches
}

// Fail makes every remote operation on source fail with err.
func (f *Fake) Fail(source string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote(source).err = err
}

// SetHead sets the revision of the working copy at path.
func (f *Fake) SetHead(path, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads[path] = hash
}

// Lookups returns how many remote head lookups hit source.
func (f *Fake) Lookups(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remote(source).lookups
}

// Published returns the publish messages recorded for the working copy at
// path.
func (f *Fake) Published(path string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published[path]...)
}

type provider struct {
	fake *Fake
	repo vcs.Repository
}

func (p *provider) fail(op string, err error) error {
	return planerr.WrapVcs(err, op, p.repo.Path, p.repo.Source, p.repo.Revision)
}

func (p *provider) Exists(ctx context.Context) bool {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	_, ok := p.fake.heads[p.repo.Path]
	return ok
}

func (p *provider) Init(ctx context.Context) error {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	r := p.fake.remote(p.repo.Source)
	if r.err != nil {
		return p.fail("init", r.err)
	}
	p.fake.heads[p.repo.Path] = r.heads[p.repo.Revision]
	return nil
}

func (p *provider) Update(ctx context.Context, force bool) error {
	return p.Init(ctx)
}

func (p *provider) Checkout(ctx context.Context, revision string) error {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	hash, ok := p.fake.remote(p.repo.Source).heads[revision]
	if !ok {
		return p.fail("checkout", fmt.Errorf("unknown revision %s", revision))
	}
	p.fake.heads[p.repo.Path] = hash
	p.repo.Revision = revision
	return nil
}

func (p *provider) Branches(ctx context.Context) ([]string, error) {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	r := p.fake.remote(p.repo.Source)
	if r.err != nil {
		return nil, p.fail("branches", r.err)
	}
	out := append([]string(nil), r.branches...)
	sort.Strings(out)
	return out, nil
}

func (p *provider) HeadRevision(ctx context.Context) (string, error) {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	hash, ok := p.fake.heads[p.repo.Path]
	if !ok {
		return "", p.fail("head revision", fmt.Errorf("no working copy"))
	}
	return hash, nil
}

func (p *provider) RemoteHeadRevision(ctx context.Context) (string, bool, error) {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	r := p.fake.remote(p.repo.Source)
	r.lookups++
	if r.err != nil {
		return "", false, p.fail("remote head revision", r.err)
	}
	hash, ok := r.heads[p.repo.Revision]
	return hash, ok, nil
}

func (p *provider) PublishedSources(ctx context.Context) ([]sourceid.Entry, error) {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	r := p.fake.remote(p.repo.Source)
	if r.err != nil {
		return nil, p.fail("published sources", r.err)
	}
	return append([]sourceid.Entry(nil), r.sources[p.repo.Revision]...), nil
}

func (p *provider) Publish(ctx context.Context, message string) error {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	p.fake.published[p.repo.Path] = append(p.fake.published[p.repo.Path], message)
	return nil
}

func (p *provider) HiddenFolder() string { return ".fake" }
