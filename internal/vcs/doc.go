// Package vcs defines the version-control provider boundary.
//
// The planner never talks to a repository directly. Everything it needs,
// the revision a branch points at or the manifest recorded in a published
// artifact, goes through a Provider opened from a Registry for one
// repository location. Provider implementations live in subpackages and
// register themselves as modules, the same way every backend is plugged in.
//
// Errors returned by providers are *planerr.VcsError values carrying the
// path, source and revision of the repository involved.
package vcs
