package catalog

// Attribute keys understood by the planner.
const (
	AttrIntegrate          = "integrate"
	AttrPlatforms          = "platforms"
	AttrTerminalDependency = "terminal_dependency"
	AttrExcludeBuildUpTo   = "exclude_bu2"
)

// IsTerminal reports whether recursion stops at c when it is reached through
// kind. Code edges always recurse since they are real build input.
func (c *Component) IsTerminal(kind string) bool {
	if kind == KindCode {
		return false
	}
	return c.boolAttr(AttrTerminalDependency, false)
}

// ExcludedFromBuildUpTo reports whether c is left out of build-up-to trees.
func (c *Component) ExcludedFromBuildUpTo() bool {
	return c.boolAttr(AttrExcludeBuildUpTo, false)
}

// Integrates reports whether c takes part in integration. Components
// integrate unless the attribute is explicitly false.
func (c *Component) Integrates() bool {
	return c.boolAttr(AttrIntegrate, true)
}

// Platforms returns the supported platforms declared for c.
func (c *Component) Platforms() []string {
	raw, ok := c.Attributes[AttrPlatforms]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
