package catalog

import (
	"strings"
	"sync"
)

// Well-known dependency and aspect kinds.
const (
	KindCode   = "code"
	KindBuilt  = "built"
	KindTest   = "test"
	KindReport = "report"
)

// WildcardPlatform requests one built aspect per supported platform.
const WildcardPlatform = "all"

// AllPlatforms lists every concrete build platform, in the order built
// aspects are expanded for the wildcard platform.
var AllPlatforms = []string{
	"built.osx_universal",
	"built.linux_armv6",
	"built.linux_x86-64",
	"built.linux_i686",
	"built.linux_x86-64.org",
	"built.win_32",
	"built.win_x64",
}

// IsPlatform reports whether kind names a concrete build platform such as
// "built.linux_x86-64".
func IsPlatform(kind string) bool {
	return strings.HasPrefix(kind, KindBuilt+".")
}

// DependencyTypes maps a dependency kind to the ordered aspect template names
// materialised for a component reached through that kind.
type DependencyTypes map[string][]string

// DefaultDependencyTypes is used when a request carries no kind catalog.
func DefaultDependencyTypes() DependencyTypes {
	return DependencyTypes{
		KindCode:  {KindCode},
		KindBuilt: {KindBuilt},
		KindTest:  {KindTest},
	}
}

// InventoryDependencyTypes is the kind catalog used when listing the
// repositories a branch touches.
func InventoryDependencyTypes() DependencyTypes {
	return DependencyTypes{
		KindCode:  {KindCode, KindTest, KindReport},
		KindBuilt: {KindBuilt},
	}
}

// Catalog is the complete, read-only component catalog for one branch.
type Catalog struct {
	Components   []*Component     `json:"components" yaml:"components"`
	Aspects      []AspectTemplate `json:"aspects" yaml:"aspects"`
	SandboxTypes []SandboxType    `json:"sandbox_types" yaml:"sandbox_types"`
	Commands     []Command        `json:"commands" yaml:"commands"`

	indexOnce sync.Once
	index     map[string][]*Component
}

// Component is a single catalog entry.
type Component struct {
	Name         string           `json:"name" yaml:"name"`
	Attributes   map[string]any   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Dependencies []DependencyEdge `json:"dependencies" yaml:"dependencies"`
	Aspects      []AspectTemplate `json:"aspects,omitempty" yaml:"aspects,omitempty"`
	Commands     []Command        `json:"commands,omitempty" yaml:"commands,omitempty"`
}

// DependencyEdge points from the owning component to Component. A KindBuilt
// edge also means Component must be fully built before its owner.
type DependencyEdge struct {
	Component string `json:"component" yaml:"component"`
	Kind      string `json:"type" yaml:"type"`
}

// AspectTemplate is a named, templated checkout specification.
type AspectTemplate struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Repo Repo   `json:"vcsrepo" yaml:"vcsrepo"`
}

// Repo locates a version-controlled repository. Source and Revision may
// contain template variables until resolved.
type Repo struct {
	Provider string `json:"provider" yaml:"provider"`
	Source   string `json:"source" yaml:"source"`
	Revision string `json:"revision" yaml:"revision"`
}

// SandboxType describes one kind of sandbox. Name is matched as a
// case-insensitive regular expression against the requested sandbox kind.
type SandboxType struct {
	Name            string            `json:"name" yaml:"name"`
	Default         bool              `json:"default,omitempty" yaml:"default,omitempty"`
	Commands        []string          `json:"commands" yaml:"commands"`
	DependencyTypes DependencyTypes   `json:"dependency_types,omitempty" yaml:"dependency_types,omitempty"`
	Env             map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Command is an opaque named command carried through to sandbox facts.
type Command struct {
	Name    string            `json:"name" yaml:"name"`
	Type    string            `json:"type,omitempty" yaml:"type,omitempty"`
	Command []string          `json:"command,omitempty" yaml:"command,omitempty"`
	Cwd     string            `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}
