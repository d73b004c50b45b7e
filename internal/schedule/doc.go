// Package schedule decides which components of an optimized build-up-to
// schedule must be rebuilt.
//
// Every published artifact records the upstream revisions it was built
// from. A component is stale when one of those recorded revisions no
// longer matches the live revision of the upstream aspect. Staleness flows
// forward: everything in later layers consuming a stale component through
// a built edge is rebuilt as well, and so is the root layer.
//
// When in doubt the scheduler rebuilds. A live revision that cannot be
// determined makes a component stale instead of failing the whole plan.
package schedule
