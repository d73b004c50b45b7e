package vcs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/sandplan/internal/aspect"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/vcs"
	"github.com/specialistvlad/sandplan/internal/vcs/vcstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	fake := vcstest.New("git", "bzr")
	fake.SetRemoteHead("git@example.com:app.git", "master", "0123456789abcdef")
	reg := vcs.NewRegistry(fake)

	assert.Equal(t, []string{"bzr", "git"}, reg.Providers())

	t.Run("open known provider", func(t *testing.T) {
		p, err := reg.Open(vcs.Repository{Provider: "git", Source: "git@example.com:app.git", Revision: "master"})
		require.NoError(t, err)

		rev, ok, err := p.RemoteHeadRevision(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "0123456789abcdef", rev)
	})

	t.Run("unknown provider is a configuration error", func(t *testing.T) {
		_, err := reg.Open(vcs.Repository{Provider: "svn", Source: "svn://host/app"})
		require.Error(t, err)
		assert.ErrorIs(t, err, planerr.ErrUndefined)
		assert.Equal(t, "The vcs provider 'svn' of svn://host/app is not supported.", err.Error())
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		assert.Panics(t, func() { vcs.NewRegistry(fake, fake) })
	})
}

func TestProviderErrorsCarryRepositoryContext(t *testing.T) {
	ctx := context.Background()
	fake := vcstest.New()
	fake.Fail("git@example.com:broken.git", errors.New("connection refused"))
	reg := vcs.NewRegistry(fake)

	p, err := reg.Open(vcs.ForAspect(aspect.Resolved{
		Name: "broken", Type: catalog.KindCode, Path: "/sb/code/broken",
		Repo: catalog.Repo{Provider: "git", Source: "git@example.com:broken.git", Revision: "master"},
	}))
	require.NoError(t, err)

	_, err = p.Branches(ctx)
	require.Error(t, err)

	var vcsErr *planerr.VcsError
	require.ErrorAs(t, err, &vcsErr)
	assert.Equal(t, "/sb/code/broken", vcsErr.Path)
	assert.Equal(t, "branches: connection refused in /sb/code/broken with source git@example.com:broken.git and revision master", err.Error())
}
