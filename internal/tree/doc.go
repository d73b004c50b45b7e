// Package tree builds the dependency tree of a component and flattens it
// into a layered schedule.
//
// Build mirrors the kind map computed by package kinds, so the tree and the
// map always agree on which components are consumed as code and which as
// prebuilt artifacts. BuildBuilt builds the build-up-to tree, which follows
// built edges only and is the input of build scheduling.
//
// Terminal dependencies appear in the tree marked as such but are never
// expanded, which keeps trees finite even when the catalog has cycles.
package tree
