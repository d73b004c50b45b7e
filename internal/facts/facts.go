// Package facts assembles everything a sandbox needs to be laid out for one
// top level component: the sandbox type, its commands, every aspect to check
// out and the environment.
package facts

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/sandplan/internal/aspect"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

// BuildScripts is the component whose code aspect every sandbox carries.
const BuildScripts = "buildscripts"

// Request selects what to gather facts for.
type Request struct {
	Component   string
	Branch      string
	SandboxKind string
	SandboxPath string
	Platform    string
	Users       map[string]string
}

// Facts describes one sandbox.
type Facts struct {
	Branch         string                   `json:"branch" yaml:"branch"`
	Platform       string                   `json:"build_type" yaml:"build_type"`
	SandboxPath    string                   `json:"sand_path" yaml:"sand_path"`
	Top            *catalog.Component       `json:"top" yaml:"top"`
	Attributes     map[string]any           `json:"attributes" yaml:"attributes"`
	Sandbox        *catalog.SandboxType     `json:"sandbox" yaml:"sandbox"`
	Commands       []catalog.Command        `json:"commands" yaml:"commands"`
	Aspects        []aspect.Resolved        `json:"aspects" yaml:"aspects"`
	TopBuiltAspect *aspect.Resolved         `json:"top_built_aspect" yaml:"top_built_aspect"`
	ConfigAspects  []catalog.AspectTemplate `json:"config_aspects" yaml:"config_aspects"`
	Env            map[string]string        `json:"env" yaml:"env"`
}

// CheckBranch fails unless branch is one of the catalog repository's
// branches.
func CheckBranch(branch string, available []string) error {
	for _, b := range available {
		if b == branch {
			return nil
		}
	}
	return planerr.Configf(planerr.CodeNotFound,
		"Branch %s is not supported. Available branches: %s", branch, strings.Join(available, ", "))
}

// Gather collects the facts for req. Configuration errors are prefixed with
// the branch they were found on.
func Gather(ctx context.Context, cat *catalog.Catalog, req Request) (*Facts, error) {
	f, err := gather(ctx, cat, req)
	if err != nil {
		return nil, planerr.WithPrefix(err, fmt.Sprintf("Error with config on branch '%s': ", req.Branch))
	}
	return f, nil
}

func gather(ctx context.Context, cat *catalog.Catalog, req Request) (*Facts, error) {
	logger := ctxlog.FromContext(ctx).With("component", req.Component, "branch", req.Branch)
	logger.Debug("Gathering sandbox facts.", "sandbox_kind", req.SandboxKind)

	top, err := cat.Component(req.Component)
	if err != nil {
		return nil, err
	}
	sandbox, err := cat.Sandbox(ctx, req.SandboxKind)
	if err != nil {
		return nil, err
	}

	f := &Facts{
		Branch:        req.Branch,
		Platform:      req.Platform,
		SandboxPath:   req.SandboxPath,
		Top:           top,
		Attributes:    top.Attributes,
		Sandbox:       sandbox,
		ConfigAspects: cat.Aspects,
		Env:           sandbox.Env,
	}
	if f.Env == nil {
		f.Env = map[string]string{}
	}

	f.Commands, err = commands(cat, top, sandbox)
	if err != nil {
		return nil, err
	}

	r := aspect.New(cat, aspect.Request{
		Branch:          req.Branch,
		Platform:        req.Platform,
		Users:           req.Users,
		SandboxPath:     req.SandboxPath,
		DependencyTypes: sandbox.DependencyTypes,
	})
	res, err := r.Resolve(ctx, top.Name, catalog.KindCode)
	if err != nil {
		return nil, err
	}
	f.Aspects = res.All()

	if !hasType(res[BuildScripts], catalog.KindCode) {
		scripts, err := r.ResolveOne(ctx, BuildScripts, catalog.KindCode)
		if err != nil {
			return nil, err
		}
		if a, ok := firstOfType(scripts, catalog.KindCode); ok {
			f.Aspects = append(f.Aspects, a)
		}
	}

	built, err := r.ResolveOne(ctx, top.Name, catalog.KindBuilt)
	if err != nil {
		return nil, err
	}
	if a, ok := TopBuiltAspect(built); ok {
		f.TopBuiltAspect = &a
	}

	logger.Debug("Sandbox facts gathered.", "aspects", len(f.Aspects), "commands", len(f.Commands))
	return f, nil
}

// commands returns the sandbox's commands with every command the top level
// component defines replacing the sandbox command of the same name.
func commands(cat *catalog.Catalog, top *catalog.Component, sandbox *catalog.SandboxType) ([]catalog.Command, error) {
	out := make([]catalog.Command, 0, len(sandbox.Commands)+len(top.Commands))
	for _, name := range sandbox.Commands {
		cmd, err := cat.Command(name, "")
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	for _, local := range top.Commands {
		kept := out[:0]
		for _, c := range out {
			if c.Name != local.Name {
				kept = append(kept, c)
			}
		}
		cmd, err := top.Command(local.Name)
		if err != nil {
			return nil, err
		}
		out = append(kept, cmd)
	}
	return out, nil
}

// TopBuiltAspect picks the built aspect out of a component's aspects. With
// the wildcard platform the first concrete platform is returned.
func TopBuiltAspect(aspects []aspect.Resolved) (aspect.Resolved, bool) {
	for _, a := range aspects {
		if a.Type == catalog.KindBuilt || catalog.IsPlatform(a.Type) {
			return a, true
		}
	}
	return aspect.Resolved{}, false
}

func hasType(aspects []aspect.Resolved, t string) bool {
	_, ok := firstOfType(aspects, t)
	return ok
}

func firstOfType(aspects []aspect.Resolved, t string) (aspect.Resolved, bool) {
	for _, a := range aspects {
		if a.Type == t {
			return a, true
		}
	}
	return aspect.Resolved{}, false
}
