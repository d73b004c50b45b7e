// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// FindFiles expands paths into a sorted, de-duplicated file list. A file
// path is taken as is whatever its extension; a directory contributes every
// file below it with one of the given extensions. A missing path is an
// error.
func FindFiles(paths []string, extensions ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(path))
			continue
		}
		for _, ext := range extensions {
			files, err := FindFilesByExtension(path, ext)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(filepath.Clean(f))
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
