// Package gitvcs implements vcs.Provider on top of go-git.
//
// Working copies live on the local disk and are accessed through go-billy.
// Remote queries (branch listings, head revisions, published manifests) run
// against an in-memory clone or an ls-remote style listing, so they never
// touch a working copy.
package gitvcs
