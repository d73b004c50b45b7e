package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/specialistvlad/sandplan/internal/aspect"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/facts"
	"github.com/specialistvlad/sandplan/internal/manifest"
	"github.com/specialistvlad/sandplan/internal/sourceid"
	"github.com/specialistvlad/sandplan/internal/vcs"
)

// now is replaced in tests.
var now = time.Now

// runPublishFiles records the working copy revision of every aspect of the
// root in source.txt, lists the published files in manifest.txt and prints
// the revision of the root's code. With Push the built working copy is
// committed and pushed.
func (a *App) runPublishFiles(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("root", a.root())
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	f, err := facts.Gather(ctx, s.cat, facts.Request{
		Component:   a.root(),
		Branch:      a.config.Branch,
		SandboxKind: a.config.SandboxKind,
		SandboxPath: a.config.SandboxPath,
		Platform:    a.config.Platform,
		Users:       s.users,
	})
	if err != nil {
		return err
	}

	dir := a.config.Dir
	hidden := ""
	var built vcs.Provider
	if f.TopBuiltAspect != nil {
		built, err = a.registry.Open(vcs.ForAspect(*f.TopBuiltAspect))
		if err != nil {
			return err
		}
		hidden = built.HiddenFolder()
		if dir == "" {
			dir = f.TopBuiltAspect.Path
		}
	}
	if dir == "" {
		return fmt.Errorf("component '%s' has no built aspect to publish into", a.root())
	}

	entries, err := a.headRevisions(ctx, f.Aspects)
	if err != nil {
		return err
	}

	fsys := osfs.New(dir)
	if err := manifest.WriteSourcesFile(fsys, ".", entries); err != nil {
		return err
	}
	if err := manifest.WriteListing(fsys, ".", hidden, now()); err != nil {
		return err
	}
	logger.Info("Publish files written.", "dir", dir, "sources", len(entries))

	rev, err := codeRevision(entries, a.root())
	if err != nil {
		return err
	}
	if a.config.Push {
		if built == nil {
			return fmt.Errorf("component '%s' has no built aspect to push", a.root())
		}
		if err := built.Publish(ctx, fmt.Sprintf("Publish %s built from %s", a.root(), rev)); err != nil {
			return err
		}
		logger.Info("Built aspect pushed.", "source", f.TopBuiltAspect.Repo.Source)
	}
	_, err = fmt.Fprintln(a.outW, rev)
	return err
}

// headRevisions returns the working copy revision of every aspect. Aspects
// without a working copy record manifest.NoRevision.
func (a *App) headRevisions(ctx context.Context, aspects []aspect.Resolved) ([]sourceid.Entry, error) {
	entries := make([]sourceid.Entry, 0, len(aspects))
	for _, asp := range aspects {
		kind := asp.Type
		if kind == catalog.KindBuilt {
			kind = a.config.Platform
		}
		p, err := a.registry.Open(vcs.ForAspect(asp))
		if err != nil {
			return nil, err
		}
		rev := manifest.NoRevision
		if p.Exists(ctx) {
			if rev, err = p.HeadRevision(ctx); err != nil {
				return nil, err
			}
		}
		entries = append(entries, sourceid.Entry{ID: sourceid.FromResolvedKind(asp.Name, kind), Revision: rev})
	}
	return entries, nil
}

func codeRevision(entries []sourceid.Entry, root string) (string, error) {
	for _, e := range entries {
		if e.Component == root && e.Kind == catalog.KindCode {
			return e.Revision, nil
		}
	}
	return "", errors.New("the root component has no code aspect")
}
