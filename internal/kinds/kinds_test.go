package kinds

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const platform = testutil.Platform

func TestPropagate(t *testing.T) {
	testCases := []struct {
		name      string
		cat       *catalog.Catalog
		start     string
		startKind string
		expected  Map
	}{
		{
			name: "built edge switches the subtree to the platform",
			cat: testutil.Catalog(
				testutil.Comp("A", "B:code"),
				testutil.Comp("B", "C:built"),
				testutil.Comp("C"),
			),
			start: "A", startKind: "code",
			expected: Map{"A": "code", "B": "code", "C": platform},
		},
		{
			name: "built mode is sticky below a built edge",
			cat: testutil.Catalog(
				testutil.Comp("app", "lib:built"),
				testutil.Comp("lib", "zlib:code", "docs:test"),
				testutil.Comp("zlib"),
				testutil.Comp("docs"),
			),
			start: "app", startKind: "code",
			expected: Map{"app": "code", "lib": platform, "zlib": platform, "docs": platform},
		},
		{
			name: "starting as built resolves the root to the platform",
			cat: testutil.Catalog(
				testutil.Comp("app", "lib:code"),
				testutil.Comp("lib"),
			),
			start: "app", startKind: "built",
			expected: Map{"app": platform, "lib": platform},
		},
		{
			name: "first assigned kind wins unless code comes later",
			cat: testutil.Catalog(
				testutil.Comp("app", "tools:built", "lib:code", "fixtures:test"),
				testutil.Comp("tools", "zlib:code", "fixtures:code"),
				testutil.Comp("lib", "zlib:code"),
				testutil.Comp("zlib"),
				testutil.Comp("fixtures"),
			),
			start: "app", startKind: "code",
			expected: Map{"app": "code", "tools": platform, "lib": "code", "zlib": "code", "fixtures": platform},
		},
		{
			name: "terminal dependency stops recursion",
			cat: testutil.Catalog(
				testutil.Comp("app", "X:built"),
				testutil.Terminal(testutil.Comp("X", "Y:built")),
				testutil.Comp("Y"),
			),
			start: "app", startKind: "code",
			expected: Map{"app": "code", "X": platform},
		},
		{
			name: "terminal dependency reached through code still recurses",
			cat: testutil.Catalog(
				testutil.Comp("app", "X:code"),
				testutil.Terminal(testutil.Comp("X", "Y:built")),
				testutil.Comp("Y"),
			),
			start: "app", startKind: "code",
			expected: Map{"app": "code", "X": "code", "Y": platform},
		},
		{
			name: "terminal dependency breaks an edge cycle",
			cat: testutil.Catalog(
				testutil.Comp("a", "b:built"),
				testutil.Terminal(testutil.Comp("b", "a:built")),
			),
			start: "a", startKind: "code",
			expected: Map{"a": "code", "b": platform},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx, _ := testutil.Context(t)

			// --- Act ---
			got, err := Propagate(ctx, tc.cat, tc.start, tc.startKind, platform)

			// --- Assert ---
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Propagate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPropagate_IsDeterministic(t *testing.T) {
	ctx, _ := testutil.Context(t)
	cat := testutil.Catalog(
		testutil.Comp("app", "a:code", "b:built", "c:test"),
		testutil.Comp("a", "c:code", "d:built"),
		testutil.Comp("b", "d:code"),
		testutil.Comp("c", "d:test"),
		testutil.Comp("d"),
	)

	first, err := Propagate(ctx, cat, "app", "code", platform)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Propagate(ctx, cat, "app", "code", platform)
		require.NoError(t, err)
		require.Empty(t, cmp.Diff(first, again))
	}
}

func TestPropagate_Errors(t *testing.T) {
	ctx, _ := testutil.Context(t)

	t.Run("non-terminal cycle", func(t *testing.T) {
		cat := testutil.Catalog(
			testutil.Comp("a", "b:code"),
			testutil.Comp("b", "c:built"),
			testutil.Comp("c", "b:built"),
		)
		_, err := Propagate(ctx, cat, "a", "code", platform)
		require.Error(t, err)
		assert.ErrorIs(t, err, planerr.ErrCycle)
		assert.Equal(t, "Dependency cycle detected: b -> c -> b", err.Error())
	})

	t.Run("dangling edge", func(t *testing.T) {
		cat := testutil.Catalog(testutil.Comp("a", "ghost:code"))
		_, err := Propagate(ctx, cat, "a", "code", platform)
		require.Error(t, err)
		assert.ErrorIs(t, err, planerr.ErrNotFound)
	})
}

func TestMap_Helpers(t *testing.T) {
	m := Map{"b": "code", "a": platform}
	assert.Equal(t, []string{"a", "b"}, m.Names())

	c := m.Clone()
	delete(c, "a")
	assert.Len(t, m, 2, "clone must not share storage")
}
