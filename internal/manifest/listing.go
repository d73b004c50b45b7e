package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/specialistvlad/sandplan/internal/sourceid"
)

// ListingFile is the name of the published file listing.
const ListingFile = "manifest.txt"

// publishedLayout matches an ISO 8601 local time with a space separator.
const publishedLayout = "2006-01-02 15:04:05.000000-07:00"

// Listing returns one "relpath,size" line per file below dir, sorted by
// path. Entries whose name contains hidden, typically the VCS metadata
// folder, are skipped together with their contents.
func Listing(fsys billy.Filesystem, dir, hidden string) ([]string, error) {
	var lines []string
	err := util.Walk(fsys, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if hidden != "" && strings.Contains(info.Name(), hidden) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		lines = append(lines, fmt.Sprintf("%s,%d", filepath.ToSlash(rel), info.Size()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(lines)
	return lines, nil
}

// WriteListing writes manifest.txt into dir: a publication timestamp
// followed by the Listing of dir.
func WriteListing(fsys billy.Filesystem, dir, hidden string, now time.Time) error {
	lines, err := Listing(fsys, dir, hidden)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Last published on %s\n", now.Local().Format(publishedLayout))
	buf.WriteString(strings.Join(lines, "\n"))

	return writeFile(fsys, path.Join(dir, ListingFile), buf.Bytes())
}

// WriteSourcesFile writes source.txt into dir.
func WriteSourcesFile(fsys billy.Filesystem, dir string, entries []sourceid.Entry) error {
	var buf bytes.Buffer
	if err := WriteSources(&buf, entries); err != nil {
		return err
	}
	return writeFile(fsys, path.Join(dir, SourcesFile), buf.Bytes())
}

// ReadSourcesFile reads source.txt from dir.
func ReadSourcesFile(fsys billy.Filesystem, dir string) ([]sourceid.Entry, error) {
	data, err := util.ReadFile(fsys, path.Join(dir, SourcesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SourcesFile, err)
	}
	return ParseSources(bytes.NewReader(data))
}

func writeFile(fsys billy.Filesystem, name string, data []byte) error {
	if err := util.WriteFile(fsys, name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
