// Package manifest reads and writes the files recorded alongside a
// published artifact.
//
// source.txt holds one "name.kind[.platform]: revision" line per upstream
// aspect the artifact was built from. It is the input of build scheduling:
// a component is stale once one of its recorded upstream revisions no
// longer matches the live one.
//
// manifest.txt lists every published file with its size, for humans and
// downstream tooling.
package manifest
