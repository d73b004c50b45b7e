/*
Package sourceid provides a structured representation of the keys recorded in
a published source manifest, based on the canonical format
`component.kind[.platform]`.

Examples:

	boost.code
	boost.test
	boost.built.linux_x86-64
	boost.built.linux_x86-64.org

The component is everything before the first dot, the kind the segment after
it. Anything further is the build platform, which may itself contain dots.
*/
package sourceid
