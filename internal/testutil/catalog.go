package testutil

import (
	"strings"

	"github.com/specialistvlad/sandplan/internal/catalog"
)

// Platform is the concrete build platform used throughout the tests.
const Platform = "built.linux_x86-64"

// Comp builds a component from edges written as "target:kind", e.g.
// Comp("app", "lib:code", "zlib:built"). An edge without a kind is a code edge.
func Comp(name string, edges ...string) *catalog.Component {
	c := &catalog.Component{Name: name, Attributes: map[string]any{}}
	for _, e := range edges {
		target, kind, ok := strings.Cut(e, ":")
		if !ok {
			kind = catalog.KindCode
		}
		c.Dependencies = append(c.Dependencies, catalog.DependencyEdge{Component: target, Kind: kind})
	}
	return c
}

// Terminal marks c as a terminal dependency.
func Terminal(c *catalog.Component) *catalog.Component {
	c.Attributes[catalog.AttrTerminalDependency] = true
	return c
}

// ExcludeBuildUpTo marks c as excluded from build-up-to trees.
func ExcludeBuildUpTo(c *catalog.Component) *catalog.Component {
	c.Attributes[catalog.AttrExcludeBuildUpTo] = true
	return c
}

// StandardAspects returns code, built and test templates that use every
// template variable.
func StandardAspects() []catalog.AspectTemplate {
	return []catalog.AspectTemplate{
		{Name: "code", Type: catalog.KindCode, Repo: catalog.Repo{
			Provider: "git", Source: "git@example.com:${user.git.name}/${component}.git", Revision: "${branch}",
		}},
		{Name: "built", Type: catalog.KindBuilt, Repo: catalog.Repo{
			Provider: "git", Source: "git@example.com:built/${component}/${built}.git", Revision: "${ Branch }",
		}},
		{Name: "test", Type: catalog.KindTest, Repo: catalog.Repo{
			Provider: "git", Source: "git@example.com:test/${branch}/${component}.git", Revision: "master",
		}},
	}
}

// Catalog assembles a catalog from components using StandardAspects.
func Catalog(components ...*catalog.Component) *catalog.Catalog {
	return &catalog.Catalog{
		Components: components,
		Aspects:    StandardAspects(),
	}
}

// Users is the identity table matching StandardAspects.
func Users() map[string]string {
	return map[string]string{"git": "kim"}
}
