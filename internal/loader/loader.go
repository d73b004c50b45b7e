package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/dag"
	"github.com/specialistvlad/sandplan/internal/fsutil"
	"github.com/specialistvlad/sandplan/internal/hcl_adapter"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions picked up from directories.
var Extensions = []string{".json", ".yaml", ".yml", ".hcl"}

// Load reads every catalog file found under paths and merges them.
func Load(ctx context.Context, paths ...string) (*catalog.Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Catalog loader started.", "path_count", len(paths))

	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return nil, planerr.Configf(planerr.CodeNotFound, "Config file '%s' does not exist", p)
		}
	}
	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered catalog files.", "count", len(files))

	decoder := hcl_adapter.NewDecoder()
	merged := &catalog.Catalog{}
	for _, file := range files {
		var part *catalog.Catalog
		switch strings.ToLower(filepath.Ext(file)) {
		case ".hcl":
			part, err = decoder.DecodeFile(ctx, file)
		case ".yaml", ".yml":
			part, err = decodeYAML(file)
		default:
			part, err = decodeJSON(file)
		}
		if err != nil {
			return nil, err
		}
		merge(merged, part)
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	warnBuiltCycles(ctx, merged)

	logger.Debug("Catalog loaded.", "components", len(merged.Components), "aspects", len(merged.Aspects))
	return merged, nil
}

// decodeJSON parses a JSON catalog, skipping lines whose first non-blank
// character is '#'.
func decodeJSON(path string) (*catalog.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	var buf bytes.Buffer
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	var cat catalog.Catalog
	if err := json.Unmarshal(buf.Bytes(), &cat); err != nil {
		return nil, planerr.Configf(planerr.CodeInvalid, "Config File '%s' contains invalid json. %v", path, err)
	}
	return &cat, nil
}

func decodeYAML(path string) (*catalog.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	var cat catalog.Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, planerr.Configf(planerr.CodeInvalid, "Config File '%s' contains invalid yaml. %v", path, err)
	}
	return &cat, nil
}

func merge(into, part *catalog.Catalog) {
	into.Components = append(into.Components, part.Components...)
	into.Aspects = append(into.Aspects, part.Aspects...)
	into.SandboxTypes = append(into.SandboxTypes, part.SandboxTypes...)
	into.Commands = append(into.Commands, part.Commands...)
}

// warnBuiltCycles logs cycles among built edges that no terminal dependency
// breaks. Such a catalog still loads, but planning a build through the
// cycle fails.
func warnBuiltCycles(ctx context.Context, cat *catalog.Catalog) {
	g, err := dag.FromCatalog(cat, func(_ *catalog.Component, edge catalog.DependencyEdge) bool {
		if edge.Kind != catalog.KindBuilt {
			return false
		}
		target, err := cat.Component(edge.Component)
		return err == nil && !target.IsTerminal(edge.Kind)
	})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Could not check built edges for cycles.", "error", err)
		return
	}
	if err := g.DetectCycles(); err != nil {
		ctxlog.FromContext(ctx).Warn("Built dependencies contain a cycle.", "error", err)
	}
}
