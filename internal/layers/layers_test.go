package layers

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/dag"
	"github.com/specialistvlad/sandplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtGraph(t *testing.T, components ...*catalog.Component) *dag.Graph {
	t.Helper()
	g, err := dag.Built(testutil.Catalog(components...))
	require.NoError(t, err)
	return g
}

// requireOrdered fails when a component sits at or before a layer holding
// one of its built dependencies.
func requireOrdered(t *testing.T, s Schedule, g *dag.Graph) {
	t.Helper()
	index := map[string]int{}
	for i, l := range s {
		for _, n := range l {
			_, dup := index[n]
			require.False(t, dup, "component %s appears twice", n)
			index[n] = i
		}
	}
	for n, i := range index {
		for d, j := range index {
			if g.DependsOnAny(n, map[string]bool{d: true}) {
				require.Less(t, j, i, "%s must build before %s", d, n)
			}
		}
	}
}

func TestOptimize(t *testing.T) {
	testCases := []struct {
		name       string
		components []*catalog.Component
		input      Schedule
		expected   Schedule
	}{
		{
			name: "independent leaf is pulled to the first layer",
			components: []*catalog.Component{
				testutil.Comp("app", "lib:built", "tools:built"),
				testutil.Comp("lib", "zlib:built"),
				testutil.Comp("tools"),
				testutil.Comp("zlib"),
			},
			input:    Schedule{{"zlib"}, {"lib", "tools"}, {"app"}},
			expected: Schedule{{"tools", "zlib"}, {"lib"}, {"app"}},
		},
		{
			name: "chain cannot be compacted",
			components: []*catalog.Component{
				testutil.Comp("c", "b:built"),
				testutil.Comp("b", "a:built"),
				testutil.Comp("a"),
			},
			input:    Schedule{{"a"}, {"b"}, {"c"}},
			expected: Schedule{{"a"}, {"b"}, {"c"}},
		},
		{
			name: "components move across several layers",
			components: []*catalog.Component{
				testutil.Comp("root", "mid:built", "top:built"),
				testutil.Comp("mid", "low:built"),
				testutil.Comp("low", "base:built"),
				testutil.Comp("top"),
				testutil.Comp("base"),
			},
			input:    Schedule{{"base"}, {"low"}, {"mid"}, {"top"}, {"root"}},
			expected: Schedule{{"base", "top"}, {"low"}, {"mid"}, {"root"}},
		},
		{
			name: "code edges do not constrain ordering",
			components: []*catalog.Component{
				testutil.Comp("app", "lib:code"),
				testutil.Comp("lib"),
			},
			input:    Schedule{{"lib"}, {"app"}},
			expected: Schedule{{"app", "lib"}},
		},
		{
			name:     "empty schedule",
			input:    Schedule{},
			expected: Schedule{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx, _ := testutil.Context(t)
			g := builtGraph(t, tc.components...)
			before := tc.input.Clone()

			// --- Act ---
			got := Optimize(ctx, tc.input, g)

			// --- Assert ---
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Optimize() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, before, tc.input, "input must not be mutated")
			assert.ElementsMatch(t, tc.input.Members(), got.Members())
			assert.LessOrEqual(t, len(got), len(tc.input))
			requireOrdered(t, got, g)

			again := Optimize(ctx, got, g)
			assert.Empty(t, cmp.Diff(got, again), "optimizing twice must be idempotent")
		})
	}
}

func TestOptimize_WideGraphKeepsOrdering(t *testing.T) {
	ctx, _ := testutil.Context(t)

	// A layered lattice: every node depends on two nodes of the level below.
	var components []*catalog.Component
	var input Schedule
	const levels, width = 5, 4
	for lvl := 0; lvl < levels; lvl++ {
		var layer Layer
		for w := 0; w < width; w++ {
			name := fmt.Sprintf("n%d_%d", lvl, w)
			var edges []string
			if lvl > 0 {
				edges = append(edges,
					fmt.Sprintf("n%d_%d:built", lvl-1, w),
					fmt.Sprintf("n%d_%d:code", lvl-1, (w+1)%width),
				)
			}
			components = append(components, testutil.Comp(name, edges...))
			layer = append(layer, name)
		}
		input = append(input, NewLayer(layer...))
	}
	components = append(components, testutil.Comp("free"))
	input[levels-1] = NewLayer(append(input[levels-1], "free")...)

	g := builtGraph(t, components...)
	got := Optimize(ctx, input, g)

	requireOrdered(t, got, g)
	assert.ElementsMatch(t, input.Members(), got.Members())
	assert.Len(t, got, levels)
	assert.True(t, got[0].Has("free"))
}

func TestCombine(t *testing.T) {
	a := Schedule{{"base"}, {"lib"}, {"app"}}
	b := Schedule{{"lib", "net"}, {"server"}}

	expected := Schedule{{"base"}, {"lib", "net"}, {"app", "server"}}

	assert.Equal(t, expected, Combine(a, b))
	assert.Equal(t, Combine(a, b), Combine(b, a), "combine must be commutative")
	assert.Equal(t, a, Combine(a, a))
	assert.Equal(t, a, Combine(a, nil))
	assert.Equal(t, Schedule{{"base"}, {"lib"}, {"app"}}, a, "inputs must not be mutated")
}

func TestSchedule_Helpers(t *testing.T) {
	s := Schedule{{"b", "a"}, {}, {"root"}}

	assert.Equal(t, Layer{"a", "b"}, NewLayer("b", "a", "b"))
	assert.True(t, NewLayer("x", "y").Has("y"))
	assert.False(t, NewLayer("x").Has("y"))
	assert.Equal(t, Layer{"root"}, s.Root())
	assert.Nil(t, Schedule{}.Root())
	assert.Equal(t, Schedule{{"b", "a"}, {"root"}}, s.Compact())
	assert.True(t, s.Equal(Schedule{{"a", "b"}, {}, {"root"}}))
	assert.False(t, s.Equal(s.Compact()))
	assert.Equal(t, "b a\n\nroot", s.String())
	assert.Equal(t, []string{"b", "a", "root"}, s.Members())
}
