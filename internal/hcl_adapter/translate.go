// This file translates the HCL block structs into the format-agnostic
// catalog model.

package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/sandplan/internal/catalog"
)

func translateAspect(a *aspectBlock) (catalog.AspectTemplate, error) {
	tmpl := catalog.AspectTemplate{Name: a.Name, Type: a.Type}
	if a.Repo == nil {
		return tmpl, fmt.Errorf("aspect '%s' has no vcsrepo block", a.Name)
	}
	source, err := placeholderString(a.Repo.Source)
	if err != nil {
		return tmpl, fmt.Errorf("in aspect '%s' source: %w", a.Name, err)
	}
	revision, err := placeholderString(a.Repo.Revision)
	if err != nil {
		return tmpl, fmt.Errorf("in aspect '%s' revision: %w", a.Name, err)
	}
	tmpl.Repo = catalog.Repo{Provider: a.Repo.Provider, Source: source, Revision: revision}
	return tmpl, nil
}

func translateComponent(c *componentBlock, evalCtx *hcl.EvalContext) (*catalog.Component, error) {
	comp := &catalog.Component{Name: c.Name, Attributes: map[string]any{}}

	if isExprDefined(c.Attributes) {
		val, diags := c.Attributes.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid attributes of component '%s': %w", c.Name, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("invalid attributes of component '%s': %w", c.Name, err)
		}
		attrs, ok := native.(map[string]any)
		if !ok && native != nil {
			return nil, fmt.Errorf("attributes of component '%s' must be an object", c.Name)
		}
		for k, v := range attrs {
			comp.Attributes[k] = v
		}
	}

	for _, d := range c.Depends {
		kind := d.Type
		if kind == "" {
			kind = catalog.KindCode
		}
		comp.Dependencies = append(comp.Dependencies, catalog.DependencyEdge{Component: d.Component, Kind: kind})
	}
	for _, a := range c.Aspects {
		tmpl, err := translateAspect(a)
		if err != nil {
			return nil, fmt.Errorf("in component '%s': %w", c.Name, err)
		}
		comp.Aspects = append(comp.Aspects, tmpl)
	}
	for _, cmd := range c.Commands {
		comp.Commands = append(comp.Commands, translateCommand(cmd))
	}
	return comp, nil
}

func translateSandbox(s *sandboxBlock) catalog.SandboxType {
	st := catalog.SandboxType{
		Name:     s.Name,
		Default:  s.Default,
		Commands: s.Commands,
		Env:      s.Env,
	}
	if len(s.DependencyTypes) > 0 {
		st.DependencyTypes = catalog.DependencyTypes(s.DependencyTypes)
	}
	return st
}

func translateCommand(c *commandBlock) catalog.Command {
	return catalog.Command{
		Name:    c.Name,
		Type:    c.Type,
		Command: c.Command,
		Cwd:     c.Cwd,
		Env:     c.Env,
	}
}
