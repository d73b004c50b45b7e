package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sandplan/internal/aspect"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/dag"
	"github.com/specialistvlad/sandplan/internal/facts"
	"github.com/specialistvlad/sandplan/internal/inventory"
	"github.com/specialistvlad/sandplan/internal/kinds"
	"github.com/specialistvlad/sandplan/internal/layers"
	"github.com/specialistvlad/sandplan/internal/schedule"
	"github.com/specialistvlad/sandplan/internal/tree"
)

func (a *App) root() string {
	return a.config.Components[0]
}

// runAspects prints the sandbox facts of the root component.
func (a *App) runAspects(ctx context.Context) error {
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
	return a.write(f)
}

// runTypes prints the propagated kind of every component reachable from
// the root.
func (a *App) runTypes(ctx context.Context) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	km, err := kinds.Propagate(ctx, s.cat, a.root(), catalog.KindCode, a.config.Platform)
	if err != nil {
		return err
	}
	for _, name := range km.Names() {
		if _, err := fmt.Fprintf(a.outW, "%s: %s\n", name, km[name]); err != nil {
			return err
		}
	}
	return nil
}

// runTree prints the dependency tree of the root.
func (a *App) runTree(ctx context.Context) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	km, err := kinds.Propagate(ctx, s.cat, a.root(), catalog.KindCode, a.config.Platform)
	if err != nil {
		return err
	}
	t, err := tree.Build(ctx, s.cat, a.root(), km)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.outW, t.String())
	return err
}

// runDeps writes the dependency list and tree of the root into Dir.
func (a *App) runDeps(ctx context.Context) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	return tree.WriteDependencyFiles(ctx, a.config.Dir, s.cat, a.root(), a.config.Platform)
}

// runBuildUpTo prints the layers that must be rebuilt to bring every root
// up to date, combined across roots.
func (a *App) runBuildUpTo(ctx context.Context) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	plan, err := a.buildUpTo(ctx, s)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		ctxlog.FromContext(ctx).Info("Everything is up to date.")
		return nil
	}
	_, err = fmt.Fprintln(a.outW, plan.String())
	return err
}

func (a *App) buildUpTo(ctx context.Context, s *session) (layers.Schedule, error) {
	logger := ctxlog.FromContext(ctx)
	built, err := dag.Built(s.cat)
	if err != nil {
		return nil, err
	}
	sources := &schedule.AspectSources{
		Resolver: aspect.New(s.cat, aspect.Request{
			Branch:      a.config.Branch,
			Platform:    a.config.Platform,
			Users:       s.users,
			SandboxPath: a.config.SandboxPath,
		}),
		Registry: a.registry,
		Cache:    a.cache,
	}
	scheduler := schedule.New(sources, sources, built, schedule.WithParallelism(a.config.Parallelism))

	var combined layers.Schedule
	for _, root := range a.config.Components {
		t, err := tree.BuildBuilt(ctx, s.cat, root)
		if err != nil {
			return nil, err
		}
		optimized := layers.Optimize(ctx, t.Layers(), built)
		plan, err := scheduler.Plan(ctx, optimized)
		if err != nil {
			return nil, err
		}
		logger.Debug("Root scheduled.", "root", root, "layers", len(plan))
		combined = layers.Combine(combined, plan)
	}
	return combined, nil
}

func (a *App) inventory(ctx context.Context) (*inventory.Inventory, error) {
	src, users, err := a.catalogSource(ctx)
	if err != nil {
		return nil, err
	}
	return &inventory.Inventory{
		Source:      src,
		Registry:    a.registry,
		Cache:       a.cache,
		Users:       users,
		Platform:    a.config.Platform,
		Parallelism: a.config.Parallelism,
	}, nil
}

// runChangesets prints the remote head revision of every aspect of every
// component on the configured branch, or on every branch.
func (a *App) runChangesets(ctx context.Context) error {
	inv, err := a.inventory(ctx)
	if err != nil {
		return err
	}
	changesets, err := inv.Changesets(ctx, a.config.Branch)
	if err != nil {
		return err
	}
	return a.write(changesets)
}

// runBuildInfo prints the integrated components of every branch and the
// sources they are built from.
func (a *App) runBuildInfo(ctx context.Context) error {
	inv, err := a.inventory(ctx)
	if err != nil {
		return err
	}
	info, err := inv.BuildInfo(ctx)
	if err != nil {
		return err
	}
	return a.write(info)
}
