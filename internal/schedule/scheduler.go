package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/dag"
	"github.com/specialistvlad/sandplan/internal/layers"
	"github.com/specialistvlad/sandplan/internal/manifest"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/sourceid"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds concurrent staleness checks within a layer.
const DefaultParallelism = 8

// revisionSuffix is how many trailing characters of a live revision must
// appear in the recorded one for the two to match.
const revisionSuffix = 8

// ManifestSource returns the upstream revisions recorded when a component
// was last published.
type ManifestSource interface {
	PublishedSources(ctx context.Context, component string) ([]sourceid.Entry, error)
}

// RevisionSource returns the live revision of a component's aspect of the
// given kind. ok is false when there is no such revision.
type RevisionSource interface {
	LiveRevision(ctx context.Context, component, kind string) (rev string, ok bool, err error)
}

// Scheduler computes rebuild plans.
type Scheduler struct {
	manifests   ManifestSource
	revisions   RevisionSource
	built       *dag.Graph
	parallelism int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithParallelism bounds the number of components checked concurrently.
func WithParallelism(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// New creates a Scheduler. built holds the built edges of the catalog.
func New(manifests ManifestSource, revisions RevisionSource, built *dag.Graph, opts ...Option) *Scheduler {
	s := &Scheduler{
		manifests:   manifests,
		revisions:   revisions,
		built:       built,
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// verdict is the outcome of checking one component.
type verdict struct {
	stale    bool
	upstream sourceid.ID
	live     string
	recorded string
}

// Plan returns, for each layer of s, the members that must be rebuilt.
// Layers are processed from the first to build to the root. Layers left
// without members are dropped. Failing to read a published manifest is
// fatal, and so is a configuration error raised while looking up a live
// revision. Any other failed live lookup counts as a missing revision.
func (s *Scheduler) Plan(ctx context.Context, sched layers.Schedule) (layers.Schedule, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Planning rebuild.", "layers", len(sched))

	scheduled := map[string]bool{}
	out := make(layers.Schedule, len(sched))
	for i, layer := range sched {
		var pending []string
		for _, name := range layer {
			if !scheduled[name] {
				pending = append(pending, name)
			}
		}
		verdicts, err := s.checkAll(ctx, pending)
		if err != nil {
			return nil, err
		}

		var stale []string
		for _, name := range layer {
			if scheduled[name] {
				logger.Info("Scheduling component because it depends on something being rebuilt.", "component", name)
				stale = append(stale, name)
				continue
			}
			v := verdicts[name]
			if !v.stale {
				logger.Debug("Component is up to date.", "component", name)
				continue
			}
			logger.Info("Scheduling component because an upstream aspect is out of date.",
				"component", name, "upstream", v.upstream.String(), "live", v.live, "recorded", v.recorded)
			stale = append(stale, name)
			s.propagate(sched, i, name, scheduled)
		}

		out[i] = layers.NewLayer(stale...)
		for _, name := range stale {
			scheduled[name] = true
		}
	}

	plan := out.Compact()
	logger.Debug("Rebuild planned.", "layers", len(plan), "components", len(plan.Members()))
	return plan, nil
}

// propagate schedules every member of the layers after layer i that
// consumes stale through a chain of built edges, and the whole root layer.
func (s *Scheduler) propagate(sched layers.Schedule, i int, stale string, scheduled map[string]bool) {
	last := len(sched) - 1
	between := map[string]bool{}
	for j := i + 1; j < last; j++ {
		for _, name := range sched[j] {
			between[name] = true
		}
	}

	marked := map[string]bool{stale: true}
	queue := []string{stale}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if !s.built.Has(name) {
			continue
		}
		dependents, err := s.built.Dependents(name)
		if err != nil {
			continue
		}
		for _, d := range dependents {
			if between[d] && !marked[d] {
				marked[d] = true
				scheduled[d] = true
				queue = append(queue, d)
			}
		}
	}
	if i < last {
		for _, name := range sched[last] {
			scheduled[name] = true
		}
	}
}

// checkAll checks components concurrently. Each result is stored under
// its own component before any decision is taken.
func (s *Scheduler) checkAll(ctx context.Context, components []string) (map[string]verdict, error) {
	results := make([]verdict, len(components))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for idx, name := range components {
		g.Go(func() error {
			v, err := s.check(gctx, name)
			if err != nil {
				return err
			}
			results[idx] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]verdict, len(components))
	for idx, name := range components {
		out[name] = results[idx]
	}
	return out, nil
}

// check compares the recorded upstream revisions of component with the
// live ones, stopping at the first mismatch.
func (s *Scheduler) check(ctx context.Context, component string) (verdict, error) {
	logger := ctxlog.FromContext(ctx).With("component", component)

	entries, err := s.manifests.PublishedSources(ctx, component)
	if err != nil {
		return verdict{}, fmt.Errorf("failed to read published sources of %s: %w", component, err)
	}

	for _, e := range entries {
		live, ok, err := s.revisions.LiveRevision(ctx, e.Component, e.Kind)
		var cfgErr *planerr.ConfigurationError
		if errors.As(err, &cfgErr) {
			return verdict{}, err
		}
		if err != nil {
			logger.Warn("Live revision lookup failed, treating it as missing.", "upstream", e.ID.String(), "error", err)
			live, ok = "", false
		}
		if Stale(live, ok, e.Revision) {
			return verdict{stale: true, upstream: e.ID, live: live, recorded: e.Revision}, nil
		}
	}
	return verdict{}, nil
}

// Stale reports whether a recorded upstream revision is out of date given
// the live revision. The recorded revision matches when it equals the live
// one or contains its last eight characters. A missing live revision matches
// only a recorded "none".
func Stale(live string, ok bool, recorded string) bool {
	if !ok {
		return !strings.EqualFold(recorded, manifest.NoRevision)
	}
	if live != "" && live == recorded {
		return false
	}
	if len(live) < revisionSuffix {
		return true
	}
	return !strings.Contains(recorded, live[len(live)-revisionSuffix:])
}
