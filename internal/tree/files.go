package tree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/kinds"
)

// File names of the persisted dependency artifacts.
const (
	DependenciesFile   = "dependencies.txt"
	DependencyTreeFile = "dependency_tree.txt"
)

// DependencyList renders one "name: kind" line per component in build order.
func DependencyList(t *Node, km kinds.Map) string {
	var b strings.Builder
	for _, name := range t.Order() {
		fmt.Fprintf(&b, "%s: %s\n", name, km[name])
	}
	return b.String()
}

// WriteDependencyFiles writes the dependency list and the dependency tree
// of root into dir. Files that already exist are left untouched.
func WriteDependencyFiles(ctx context.Context, dir string, cat *catalog.Catalog, root, platform string) error {
	logger := ctxlog.FromContext(ctx).With("root", root, "dir", dir)

	var pending []string
	for _, name := range []string{DependenciesFile, DependencyTreeFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		switch {
		case err == nil:
			logger.Debug("Dependency file exists, leaving it untouched.", "file", name)
		case errors.Is(err, fs.ErrNotExist):
			pending = append(pending, name)
		default:
			return fmt.Errorf("failed to stat %s: %w", name, err)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	km, err := kinds.Propagate(ctx, cat, root, catalog.KindCode, platform)
	if err != nil {
		return err
	}
	t, err := Build(ctx, cat, root, km)
	if err != nil {
		return err
	}

	contents := map[string]string{
		DependenciesFile:   DependencyList(t, km),
		DependencyTreeFile: t.String(),
	}
	for _, name := range pending {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents[name]), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		logger.Info("Dependency file written.", "file", name)
	}
	return nil
}
