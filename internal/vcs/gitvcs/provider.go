package gitvcs

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/manifest"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/sourceid"
	"github.com/specialistvlad/sandplan/internal/vcs"
)

const (
	// ID is the provider identifier used in aspect templates.
	ID         = "git"
	remoteName = "origin"
	gitDir     = ".git"
)

// Module registers the git provider.
type Module struct {
	// ShallowDepth limits the history fetched for built checkouts and
	// manifest reads. Zero fetches everything.
	ShallowDepth int
	// Author signs commits created by Publish.
	Author object.Signature
	// Auth is passed to every remote operation.
	Auth transport.AuthMethod
}

// Register implements vcs.Module.
func (m Module) Register(r *vcs.Registry) {
	r.RegisterProvider(ID, func(repo vcs.Repository) (vcs.Provider, error) {
		return New(repo, m), nil
	})
}

// Provider is a git working copy plus its remote.
type Provider struct {
	repo vcs.Repository
	opts Module
	fs   billy.Filesystem
}

// New creates a provider for repo. Nothing is touched on disk until an
// operation runs.
func New(repo vcs.Repository, opts Module) *Provider {
	if opts.Author.Name == "" {
		opts.Author = object.Signature{Name: "sandplan", Email: "sandplan@localhost"}
	}
	return &Provider{repo: repo, opts: opts, fs: osfs.New(repo.Path)}
}

func (p *Provider) wrap(err error, op string) error {
	return planerr.WrapVcs(err, op, p.repo.Path, p.repo.Source, p.repo.Revision)
}

func (p *Provider) depth() int {
	if p.repo.Type == catalog.KindBuilt || catalog.IsPlatform(p.repo.Type) {
		return p.opts.ShallowDepth
	}
	return 0
}

func (p *Provider) storage() (*filesystem.Storage, error) {
	dot, err := p.fs.Chroot(gitDir)
	if err != nil {
		return nil, err
	}
	return filesystem.NewStorage(dot, cache.NewObjectLRUDefault()), nil
}

func (p *Provider) open() (*git.Repository, error) {
	storage, err := p.storage()
	if err != nil {
		return nil, err
	}
	return git.Open(storage, p.fs)
}

// HiddenFolder implements vcs.Provider.
func (p *Provider) HiddenFolder() string { return gitDir }

// Exists implements vcs.Provider.
func (p *Provider) Exists(ctx context.Context) bool {
	_, err := p.fs.Stat(gitDir)
	return err == nil
}

// Init implements vcs.Provider. The clone is restricted to Revision when it
// names a branch.
func (p *Provider) Init(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("path", p.repo.Path, "source", p.repo.Source)
	logger.Info("Cloning repository.", "revision", p.repo.Revision)

	storage, err := p.storage()
	if err != nil {
		return p.wrap(err, "init")
	}
	opts := &git.CloneOptions{
		URL:        p.repo.Source,
		RemoteName: remoteName,
		Auth:       p.opts.Auth,
		Depth:      p.depth(),
	}
	if p.repo.Revision != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(p.repo.Revision)
		opts.SingleBranch = true
	}
	if _, err := git.CloneContext(ctx, storage, p.fs, opts); err != nil {
		return p.wrap(err, "init")
	}
	return nil
}

// Update implements vcs.Provider. The origin remote is repointed at Source
// first when the working copy was cloned from elsewhere.
func (p *Provider) Update(ctx context.Context, force bool) error {
	r, err := p.open()
	if err != nil {
		return p.wrap(err, "update")
	}
	if err := p.ensureOrigin(ctx, r); err != nil {
		return p.wrap(err, "update")
	}
	wt, err := r.Worktree()
	if err != nil {
		return p.wrap(err, "update")
	}
	if force {
		if err := wt.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
			return p.wrap(err, "update")
		}
	}
	head, err := r.Head()
	if err != nil {
		return p.wrap(err, "update")
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: head.Name(),
		SingleBranch:  true,
		Auth:          p.opts.Auth,
		Force:         force,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return p.wrap(err, "update")
	}
	return nil
}

func (p *Provider) ensureOrigin(ctx context.Context, r *git.Repository) error {
	remote, err := r.Remote(remoteName)
	if err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 && urls[0] == p.repo.Source {
			return nil
		}
		ctxlog.FromContext(ctx).Warn("Repointing origin.", "path", p.repo.Path, "from", urls, "to", p.repo.Source)
		if err := r.DeleteRemote(remoteName); err != nil {
			return err
		}
	} else if !errors.Is(err, git.ErrRemoteNotFound) {
		return err
	}
	_, err = r.CreateRemote(&config.RemoteConfig{Name: remoteName, URLs: []string{p.repo.Source}})
	return err
}

// Checkout implements vcs.Provider. revision may be a branch of the remote
// or a commit hash.
func (p *Provider) Checkout(ctx context.Context, revision string) error {
	r, err := p.open()
	if err != nil {
		return p.wrap(err, "checkout")
	}
	err = r.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Auth:       p.opts.Auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return p.wrap(err, "checkout")
	}
	wt, err := r.Worktree()
	if err != nil {
		return p.wrap(err, "checkout")
	}

	branch := plumbing.NewBranchReferenceName(revision)
	if remoteRef, err := r.Reference(plumbing.NewRemoteReferenceName(remoteName, revision), true); err == nil {
		_, localErr := r.Reference(branch, false)
		opts := &git.CheckoutOptions{Branch: branch, Force: true}
		if errors.Is(localErr, plumbing.ErrReferenceNotFound) {
			opts.Create = true
			opts.Hash = remoteRef.Hash()
		}
		if err := wt.Checkout(opts); err != nil {
			return p.wrap(err, "checkout")
		}
		return nil
	}

	hash, err := r.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return p.wrap(err, "checkout")
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return p.wrap(err, "checkout")
	}
	return nil
}

func (p *Provider) listRemote(ctx context.Context) ([]*plumbing.Reference, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: remoteName,
		URLs: []string{p.repo.Source},
	})
	return remote.ListContext(ctx, &git.ListOptions{Auth: p.opts.Auth})
}

// Branches implements vcs.Provider.
func (p *Provider) Branches(ctx context.Context) ([]string, error) {
	refs, err := p.listRemote(ctx)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, nil
	}
	if err != nil {
		return nil, p.wrap(err, "branches")
	}
	var branches []string
	for _, ref := range refs {
		if ref.Name().IsBranch() {
			branches = append(branches, ref.Name().Short())
		}
	}
	sort.Strings(branches)
	return branches, nil
}

// HeadRevision implements vcs.Provider.
func (p *Provider) HeadRevision(ctx context.Context) (string, error) {
	r, err := p.open()
	if err != nil {
		return "", p.wrap(err, "head")
	}
	head, err := r.Head()
	if err != nil {
		return "", p.wrap(err, "head")
	}
	return head.Hash().String(), nil
}

// RemoteHeadRevision implements vcs.Provider. Revision is looked up as a
// branch, then as a tag.
func (p *Provider) RemoteHeadRevision(ctx context.Context) (string, bool, error) {
	refs, err := p.listRemote(ctx)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return "", false, nil
	}
	if err != nil {
		return "", false, p.wrap(err, "ls-remote")
	}
	wanted := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(p.repo.Revision),
		plumbing.NewTagReferenceName(p.repo.Revision),
	}
	for _, name := range wanted {
		for _, ref := range refs {
			if ref.Name() == name && ref.Type() == plumbing.HashReference {
				return ref.Hash().String(), true, nil
			}
		}
	}
	return "", false, nil
}

// PublishedSources implements vcs.Provider. It clones Revision into memory
// and parses the source manifest at its tip. A missing manifest or an empty
// remote yields no entries.
func (p *Provider) PublishedSources(ctx context.Context) ([]sourceid.Entry, error) {
	ctxlog.FromContext(ctx).Debug("Reading published sources.", "source", p.repo.Source, "revision", p.repo.Revision)

	r, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:           p.repo.Source,
		ReferenceName: plumbing.NewBranchReferenceName(p.repo.Revision),
		SingleBranch:  true,
		NoCheckout:    true,
		Depth:         p.opts.ShallowDepth,
		Auth:          p.opts.Auth,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, nil
	}
	if err != nil {
		return nil, p.wrap(err, "read sources")
	}
	head, err := r.Head()
	if err != nil {
		return nil, p.wrap(err, "read sources")
	}
	commit, err := r.CommitObject(head.Hash())
	if err != nil {
		return nil, p.wrap(err, "read sources")
	}
	file, err := commit.File(manifest.SourcesFile)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, p.wrap(err, "read sources")
	}
	rd, err := file.Reader()
	if err != nil {
		return nil, p.wrap(err, "read sources")
	}
	defer rd.Close()

	entries, err := manifest.ParseSources(rd)
	if err != nil {
		return nil, p.wrap(err, "read sources")
	}
	return entries, nil
}

// Publish implements vcs.Provider. A clean working copy is not committed
// but its branch is still pushed.
func (p *Provider) Publish(ctx context.Context, message string) error {
	logger := ctxlog.FromContext(ctx).With("path", p.repo.Path)

	r, err := p.open()
	if err != nil {
		return p.wrap(err, "publish")
	}
	wt, err := r.Worktree()
	if err != nil {
		return p.wrap(err, "publish")
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return p.wrap(err, "publish")
	}
	status, err := wt.Status()
	if err != nil {
		return p.wrap(err, "publish")
	}
	if !status.IsClean() {
		author := p.opts.Author
		author.When = time.Now()
		hash, err := wt.Commit(message, &git.CommitOptions{Author: &author})
		if err != nil {
			return p.wrap(err, "publish")
		}
		logger.Info("Committed.", "commit", hash.String())
	}

	head, err := r.Head()
	if err != nil {
		return p.wrap(err, "publish")
	}
	spec := config.RefSpec(head.Name().String() + ":" + head.Name().String())
	err = r.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       p.opts.Auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return p.wrap(err, "publish")
	}
	return nil
}
