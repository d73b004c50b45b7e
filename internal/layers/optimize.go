package layers

import (
	"context"

	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/dag"
)

// Optimize compacts s by repeatedly pulling components into the previous
// layer until a full pass changes nothing. A component stays where it is
// while it has a built edge, according to built, onto a member of the
// previous layer. The result has the same members, never more layers, and
// optimizing it again returns it unchanged.
func Optimize(ctx context.Context, s Schedule, built *dag.Graph) Schedule {
	logger := ctxlog.FromContext(ctx)

	current := s.Clone().Compact()
	for pass := 1; ; pass++ {
		next := pullDown(current, built)
		if next.Equal(current) {
			logger.Debug("Schedule optimized.", "passes", pass, "layers_before", len(s), "layers_after", len(current))
			return current
		}
		current = next
	}
}

// pullDown performs a single compaction pass over every adjacent layer pair.
func pullDown(s Schedule, built *dag.Graph) Schedule {
	out := s.Clone()
	pulled := map[string]bool{}
	for i := 0; i+1 < len(out); i++ {
		below := s[i].set()
		layer := map[string]bool{}
		for _, n := range out[i] {
			if !pulled[n] {
				layer[n] = true
			}
		}
		for _, n := range s[i+1] {
			if !built.DependsOnAny(n, below) {
				layer[n] = true
			}
		}
		out[i] = fromSet(layer)
		pulled = layer
	}

	if last := len(out) - 1; last > 0 {
		rest := map[string]bool{}
		for _, n := range out[last] {
			if !pulled[n] {
				rest[n] = true
			}
		}
		out[last] = fromSet(rest)
	}
	return out.Compact()
}
