package sourceid

import (
	"fmt"
	"regexp"
	"strings"
)

// ID identifies one upstream aspect recorded in a manifest.
type ID struct {
	Component string
	Kind      string
	// Platform is empty for kinds that are not platform specific.
	Platform string
}

// Entry is one manifest line: an upstream aspect and the revision it was at
// when the owning component was published.
type Entry struct {
	ID
	Revision string
}

var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9_+-]+$`)

// Parse creates an ID from its canonical string representation.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("source identifier cannot be empty")
	}
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) < 2 {
		return ID{}, fmt.Errorf("source identifier %q has no kind", raw)
	}
	for _, seg := range parts[:2] {
		if !segmentRegex.MatchString(seg) {
			return ID{}, fmt.Errorf("invalid source identifier segment %q in %q", seg, raw)
		}
	}
	id := ID{Component: parts[0], Kind: parts[1]}
	if len(parts) == 3 {
		if parts[2] == "" || strings.Contains(parts[2], "..") || strings.HasSuffix(parts[2], ".") {
			return ID{}, fmt.Errorf("invalid platform in source identifier %q", raw)
		}
		id.Platform = parts[2]
	}
	return id, nil
}

// FromResolvedKind builds an ID for component from a resolved kind such as
// "code" or "built.linux_x86-64".
func FromResolvedKind(component, kind string) ID {
	k, platform, _ := strings.Cut(kind, ".")
	return ID{Component: component, Kind: k, Platform: platform}
}

// String serializes the ID into its canonical form.
func (id ID) String() string {
	if id.Platform == "" {
		return id.Component + "." + id.Kind
	}
	return id.Component + "." + id.Kind + "." + id.Platform
}

// ResolvedKind returns the kind including the platform, e.g.
// "built.linux_x86-64", the way dependency kinds are resolved for a build.
func (id ID) ResolvedKind() string {
	if id.Platform == "" {
		return id.Kind
	}
	return id.Kind + "." + id.Platform
}

// String renders the entry as a manifest line without the trailing newline.
func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.ID, e.Revision)
}
