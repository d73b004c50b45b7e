package manifest

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/specialistvlad/sandplan/internal/sourceid"
)

// SourcesFile is the name of the upstream revision record of a published
// artifact.
const SourcesFile = "source.txt"

// NoRevision is recorded for an upstream aspect that had no revision, for
// example a repository without commits.
const NoRevision = "none"

// ParseSources reads source.txt content. Lines without a ": " separator or
// whose key is not a valid "name.kind[.platform]" identifier are ignored.
func ParseSources(r io.Reader) ([]sourceid.Entry, error) {
	var entries []sourceid.Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, revision, ok := strings.Cut(strings.TrimRight(scanner.Text(), "\r"), ": ")
		if !ok || !strings.Contains(key, ".") {
			continue
		}
		id, err := sourceid.Parse(key)
		if err != nil {
			continue
		}
		entries = append(entries, sourceid.Entry{ID: id, Revision: strings.TrimSpace(revision)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SourcesFile, err)
	}
	return entries, nil
}

// WriteSources writes one line per entry, ordered by component then kind.
// An empty revision is written as NoRevision.
func WriteSources(w io.Writer, entries []sourceid.Entry) error {
	sorted := append([]sourceid.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Component != sorted[j].Component {
			return sorted[i].Component < sorted[j].Component
		}
		return sorted[i].ResolvedKind() < sorted[j].ResolvedKind()
	})

	bw := bufio.NewWriter(w)
	for _, e := range sorted {
		if e.Revision == "" {
			e.Revision = NoRevision
		}
		if _, err := fmt.Fprintln(bw, e.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
