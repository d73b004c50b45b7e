// Package inventory reports on the repositories every branch of the catalog
// touches: the head revision of each aspect (changesets) and which
// components integrate on which platforms (build info).
//
// Each branch of the catalog repository carries its own catalog. A Source
// hands them out one branch at a time.
package inventory
