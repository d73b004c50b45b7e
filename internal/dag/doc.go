// Package dag holds the ordering constraints between components as a
// directed graph. An edge from a dependency to its dependent means the
// dependency must be fully built first.
//
// Build stages are computed from trees and layers elsewhere; this package
// only answers "who depends on whom" questions about the catalog, for
// example which members of a later layer consume a stale artifact.
package dag
