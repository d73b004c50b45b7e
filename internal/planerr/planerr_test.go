package planerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError_IsMatchesSentinelForCode(t *testing.T) {
	err := Configf(CodeNotFound, "Component '%s' was not found.", "boost")

	assert.Equal(t, "Component 'boost' was not found.", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)

	wrapped := fmt.Errorf("resolving: %w", err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, wrapped, &cfgErr)
	assert.Equal(t, CodeNotFound, cfgErr.Code)
}

func TestWithPrefix(t *testing.T) {
	base := Configf(CodeUndefined, "Dependency type %s is not defined for component %s", "docs", "A")

	got := WithPrefix(fmt.Errorf("outer: %w", base), "Error with config on branch 'main': ")

	assert.Equal(t, "Error with config on branch 'main': Dependency type docs is not defined for component A", got.Error())
	assert.ErrorIs(t, got, ErrUndefined)
	// The original error is not mutated.
	assert.Equal(t, "Dependency type docs is not defined for component A", base.Error())

	plain := errors.New("boom")
	assert.Same(t, plain, WithPrefix(plain, "ignored: "))
}

func TestNewConflictError(t *testing.T) {
	require.NoError(t, NewConflictError(nil))

	err := NewConflictError([]Conflict{
		{Component: "B", Type: "code", Field: "source", Values: []string{"a", "b"}},
		{Component: "A", Type: "test", Field: "revision", Values: []string{"r1", "r2"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Conflicts, 2)
	assert.Equal(t, "A", cfgErr.Conflicts[0].Component)
	assert.Equal(t,
		"Component A has 2 aspects with the same type test and different revisions: r1, r2; "+
			"Component B has 2 aspects with the same type code and different sources: a, b",
		err.Error())
}

func TestWrapVcs(t *testing.T) {
	require.NoError(t, WrapVcs(nil, "checkout", "/p", "s", "r"))

	cause := errors.New("exit status 128")
	err := WrapVcs(cause, "checkout", "/sand/code/A", "git@host:A.git", "main")
	assert.Equal(t, "checkout: exit status 128 in /sand/code/A with source git@host:A.git and revision main", err.Error())
	assert.ErrorIs(t, err, cause)

	// Already wrapped errors keep their original context.
	again := WrapVcs(fmt.Errorf("retry: %w", err), "fetch", "/other", "x", "y")
	var vcsErr *VcsError
	require.ErrorAs(t, again, &vcsErr)
	assert.Equal(t, "/sand/code/A", vcsErr.Path)
}
