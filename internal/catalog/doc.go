/*
Package catalog holds the format-agnostic model of a build-farm catalog: the
components, their dependency edges, the global aspect templates, the sandbox
types and the named commands.

A Catalog is loaded once per branch by the loader package and is treated as an
immutable snapshot afterwards. Every planning pass (aspect resolution, kind
propagation, tree building, layer optimization, scheduling) receives the
snapshot explicitly; there is no package-level "current catalog".

Lookups by name report missing or duplicated entries as
planerr.ConfigurationError values carrying the offending name.
*/
package catalog
