package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/planerr"
)

func (c *Catalog) buildIndex() {
	c.indexOnce.Do(func() {
		c.index = make(map[string][]*Component, len(c.Components))
		for _, comp := range c.Components {
			c.index[comp.Name] = append(c.index[comp.Name], comp)
		}
	})
}

// Component returns the component with the given name.
func (c *Catalog) Component(name string) (*Component, error) {
	c.buildIndex()
	matches := c.index[name]
	switch len(matches) {
	case 0:
		return nil, planerr.Configf(planerr.CodeNotFound, "Component '%s' was not found.", name)
	case 1:
		return matches[0], nil
	default:
		return nil, planerr.Configf(planerr.CodeDuplicate,
			"Component '%s' was found multiple times in the component section of the config.", name)
	}
}

// Has reports whether a component with the given name exists.
func (c *Catalog) Has(name string) bool {
	c.buildIndex()
	return len(c.index[name]) > 0
}

// Names returns the sorted, de-duplicated component names.
func (c *Catalog) Names() []string {
	c.buildIndex()
	names := make([]string, 0, len(c.index))
	for name := range c.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Command returns the global command with the given name. owner, when not
// empty, names the component whose command list referenced it.
func (c *Catalog) Command(name, owner string) (Command, error) {
	return findCommand(c.Commands, name, owner)
}

// Command returns the component-local command with the given name.
func (comp *Component) Command(name string) (Command, error) {
	return findCommand(comp.Commands, name, comp.Name)
}

func findCommand(commands []Command, name, owner string) (Command, error) {
	var matched []Command
	for _, cmd := range commands {
		if cmd.Name == name {
			matched = append(matched, cmd)
		}
	}
	scope := "The sandbox commands"
	if owner != "" {
		scope = fmt.Sprintf("The top level component %s commands", owner)
	}
	switch len(matched) {
	case 0:
		return Command{}, planerr.Configf(planerr.CodeNotFound,
			"%s failed because there is no command with name %s.", scope, name)
	case 1:
		return matched[0], nil
	default:
		return Command{}, planerr.Configf(planerr.CodeDuplicate,
			"%s failed because there is more than one command with name %s.", scope, name)
	}
}

// Sandbox selects the sandbox type whose name pattern matches kind,
// case-insensitively. When nothing matches, the sandbox type flagged as
// default is used. More than one match is an error.
func (c *Catalog) Sandbox(ctx context.Context, kind string) (*SandboxType, error) {
	logger := ctxlog.FromContext(ctx)

	var matched []*SandboxType
	for i := range c.SandboxTypes {
		s := &c.SandboxTypes[i]
		re, err := regexp.Compile("(?i)" + s.Name)
		if err != nil {
			return nil, planerr.Configf(planerr.CodeInvalid, "Sandbox type name %q is not a valid pattern: %v", s.Name, err)
		}
		if re.MatchString(kind) {
			matched = append(matched, s)
		}
	}
	if len(matched) > 1 {
		names := make([]string, 0, len(matched))
		for _, s := range matched {
			names = append(names, s.Name)
		}
		return nil, planerr.Configf(planerr.CodeDuplicate, "Multiple sandbox types match %s. %s", kind, strings.Join(names, ", "))
	}
	if len(matched) == 1 {
		return matched[0], nil
	}

	for i := range c.SandboxTypes {
		if c.SandboxTypes[i].Default {
			logger.Warn("No sandbox type matches, using default.", "kind", kind, "default", c.SandboxTypes[i].Name)
			return &c.SandboxTypes[i], nil
		}
	}
	return nil, planerr.Configf(planerr.CodeNotFound, "Unable to find a default sandbox type or one that matches %s.", kind)
}

// Validate checks the structural integrity of the catalog: every component
// name is unique and every dependency edge points at a known component.
func (c *Catalog) Validate() error {
	c.buildIndex()
	for _, name := range c.Names() {
		if len(c.index[name]) > 1 {
			return planerr.Configf(planerr.CodeDuplicate,
				"Component '%s' was found multiple times in the component section of the config.", name)
		}
	}
	for _, comp := range c.Components {
		if comp.Name == "" {
			return planerr.Configf(planerr.CodeInvalid, "A component without a name was found in the config.")
		}
		for _, dep := range comp.Dependencies {
			if !c.Has(dep.Component) {
				return planerr.Configf(planerr.CodeNotFound,
					"Component '%s' depends on '%s' which was not found.", comp.Name, dep.Component)
			}
			if dep.Kind == "" {
				return planerr.Configf(planerr.CodeInvalid,
					"Component '%s' has a dependency on '%s' without a type.", comp.Name, dep.Component)
			}
		}
	}
	return nil
}
