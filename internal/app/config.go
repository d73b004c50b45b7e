package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/sandplan/internal/catalog"
)

// Commands understood by App.Run.
const (
	CmdAspects      = "aspects"
	CmdTypes        = "types"
	CmdTree         = "tree"
	CmdDeps         = "deps"
	CmdBuildUpTo    = "bu2"
	CmdChangesets   = "changesets"
	CmdBuildInfo    = "buildinfo"
	CmdPublishFiles = "publish-files"
)

// Commands lists every command in the order they are documented.
var Commands = []string{
	CmdAspects, CmdTypes, CmdTree, CmdDeps, CmdBuildUpTo,
	CmdChangesets, CmdBuildInfo, CmdPublishFiles,
}

// commandsWithoutComponent run over the whole catalog.
var commandsWithoutComponent = []string{CmdChangesets, CmdBuildInfo}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command string
	// Components are the positional arguments: the top level component, or
	// every root for bu2.
	Components []string

	// CatalogPath loads the catalog from disk instead of the catalog
	// repository named in the local config.
	CatalogPath string
	LocalConfig string

	Branch      string
	Platform    string
	SandboxKind string
	SandboxPath string
	// Dir is where deps writes. publish-files writes there too, defaulting
	// to the built aspect of the root.
	Dir string
	// Push commits and pushes the built working copy after publish-files.
	Push bool

	Output       string
	LogFormat    string
	LogLevel     string
	Parallelism  int
	CacheSize    int
	ShallowDepth int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Command == "" {
		return nil, errors.New("a command is required")
	}
	if !slices.Contains(Commands, cfg.Command) {
		return nil, fmt.Errorf("unknown command '%s'", cfg.Command)
	}
	if len(cfg.Components) == 0 && !slices.Contains(commandsWithoutComponent, cfg.Command) {
		return nil, fmt.Errorf("command '%s' needs a component", cfg.Command)
	}
	if len(cfg.Components) > 1 && cfg.Command != CmdBuildUpTo {
		return nil, fmt.Errorf("command '%s' takes exactly one component", cfg.Command)
	}
	if cfg.Push && cfg.Command != CmdPublishFiles {
		return nil, errors.New("push is only supported by publish-files")
	}
	if cfg.Command == CmdDeps && cfg.Dir == "" {
		return nil, fmt.Errorf("command '%s' needs an output directory", cfg.Command)
	}
	if cfg.CatalogPath == "" && cfg.Command != CmdChangesets && cfg.Command != CmdBuildInfo && cfg.Branch == "" {
		return nil, errors.New("a branch is required when the catalog comes from the catalog repository")
	}

	if cfg.Platform == "" {
		cfg.Platform = catalog.WildcardPlatform
	}
	if cfg.Platform != catalog.WildcardPlatform && !slices.Contains(catalog.AllPlatforms, cfg.Platform) {
		return nil, fmt.Errorf("unknown platform '%s'", cfg.Platform)
	}
	switch cfg.Output {
	case "":
		cfg.Output = "yaml"
	case "yaml", "json":
	default:
		return nil, fmt.Errorf("unknown output format '%s'", cfg.Output)
	}
	if cfg.Parallelism < 0 || cfg.CacheSize < 0 || cfg.ShallowDepth < 0 {
		return nil, errors.New("parallelism, cache size and shallow depth must not be negative")
	}
	return &cfg, nil
}
