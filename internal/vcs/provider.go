package vcs

import (
	"context"

	"github.com/specialistvlad/sandplan/internal/aspect"
	"github.com/specialistvlad/sandplan/internal/sourceid"
)

// Repository locates one checkout of a version-controlled repository.
type Repository struct {
	// Path is the local working copy.
	Path     string
	Provider string
	Source   string
	Revision string
	// Type is the aspect type the checkout serves, e.g. "code" or "built".
	// Built checkouts may be shallow.
	Type string
}

// Provider performs version-control operations on one Repository.
type Provider interface {
	// Exists reports whether the working copy is present.
	Exists(ctx context.Context) bool
	// Init creates the working copy from the remote source at Revision.
	Init(ctx context.Context) error
	// Update brings the working copy up to date with its remote. With force,
	// local modifications are discarded first.
	Update(ctx context.Context, force bool) error
	// Checkout switches the working copy to revision.
	Checkout(ctx context.Context, revision string) error
	// Branches lists the branches of the remote source.
	Branches(ctx context.Context) ([]string, error)
	// HeadRevision returns the revision the working copy is at.
	HeadRevision(ctx context.Context) (string, error)
	// RemoteHeadRevision returns the revision Revision points at in the
	// remote source. ok is false when the remote has no such revision, for
	// example a repository without commits.
	RemoteHeadRevision(ctx context.Context) (rev string, ok bool, err error)
	// PublishedSources reads the upstream revisions recorded in the
	// published artifact at Revision of the remote source.
	PublishedSources(ctx context.Context) ([]sourceid.Entry, error)
	// Publish commits every change of the working copy with message and
	// pushes it to the remote source.
	Publish(ctx context.Context, message string) error
	// HiddenFolder is the metadata folder of the working copy, e.g. ".git".
	HiddenFolder() string
}

// ForAspect returns the repository location of a resolved aspect.
func ForAspect(a aspect.Resolved) Repository {
	return Repository{
		Path:     a.Path,
		Provider: a.Repo.Provider,
		Source:   a.Repo.Source,
		Revision: a.Repo.Revision,
		Type:     a.Type,
	}
}
