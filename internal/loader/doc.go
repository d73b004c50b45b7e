// Package loader reads component catalogs from disk.
//
// Catalogs may be written as JSON, YAML or HCL, chosen by file extension.
// JSON catalogs may carry comment lines starting with `#`. Several files, or
// directories of files, merge into a single catalog which is validated
// before it is returned.
package loader
