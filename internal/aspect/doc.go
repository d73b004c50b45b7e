// Package aspect resolves a component's aspect templates into concrete
// checkout specifications.
//
// # How It Works
//
// For a component reached through a dependency kind, the resolver:
//  1. Selects the template names listed for that kind in the kind catalog.
//  2. Looks each name up in the global templates, where a component-local
//     template of the same name replaces the global one.
//  3. Substitutes `${component}`, `${branch}`, `${built}` and
//     `${user.<provider>.name}` in the source and revision.
//  4. For the wildcard platform "all", resolves built templates once per
//     platform named in the component's platforms attribute, or once per
//     known platform when it names none.
//  5. Merges the result with earlier resolutions of the same component and
//     deduplicates it, collecting conflicts instead of stopping at the first.
//
// Resolve walks the dependency graph with the same sticky built-mode rules as
// the kinds package; ResolveOne resolves a single component.
package aspect
