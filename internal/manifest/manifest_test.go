package manifest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/specialistvlad/sandplan/internal/sourceid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSources(t *testing.T) {
	content := strings.Join([]string{
		"app.code: 0123456789abcdef",
		"zlib.built.linux_x86-64: feedbeef00112233",
		"tools.test: none\r",
		"no separator here",
		"nodot: abc",
		"bad name.code: abc",
		"",
	}, "\n")

	// --- Act ---
	entries, err := ParseSources(strings.NewReader(content))

	// --- Assert ---
	require.NoError(t, err)
	expected := []sourceid.Entry{
		{ID: sourceid.ID{Component: "app", Kind: "code"}, Revision: "0123456789abcdef"},
		{ID: sourceid.ID{Component: "zlib", Kind: "built", Platform: "linux_x86-64"}, Revision: "feedbeef00112233"},
		{ID: sourceid.ID{Component: "tools", Kind: "test"}, Revision: "none"},
	}
	assert.Equal(t, expected, entries)
}

func TestWriteSources(t *testing.T) {
	entries := []sourceid.Entry{
		{ID: sourceid.FromResolvedKind("zlib", "built.linux_x86-64"), Revision: "abc"},
		{ID: sourceid.FromResolvedKind("app", "test"), Revision: ""},
		{ID: sourceid.FromResolvedKind("app", "code"), Revision: "123"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSources(&buf, entries))

	expected := "app.code: 123\napp.test: none\nzlib.built.linux_x86-64: abc\n"
	assert.Equal(t, expected, buf.String())
	assert.Equal(t, "zlib", entries[0].Component, "input order must be preserved")

	parsed, err := ParseSources(&buf)
	require.NoError(t, err)
	assert.Len(t, parsed, 3)
}

func TestListingFiles(t *testing.T) {
	// --- Arrange ---
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "pub/bin/tool", []byte("12345"), 0o755))
	require.NoError(t, util.WriteFile(fs, "pub/README", []byte("hi"), 0o644))
	require.NoError(t, util.WriteFile(fs, "pub/.git/HEAD", []byte("ref: refs/heads/master"), 0o644))
	require.NoError(t, util.WriteFile(fs, "pub/.gitignore", []byte("*.o"), 0o644))

	t.Run("listing skips the hidden folder", func(t *testing.T) {
		lines, err := Listing(fs, "pub", ".git")
		require.NoError(t, err)
		assert.Equal(t, []string{"README,2", "bin/tool,5"}, lines)
	})

	t.Run("write listing and sources", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)
		require.NoError(t, WriteListing(fs, "pub", ".git", now))

		data, err := util.ReadFile(fs, "pub/"+ListingFile)
		require.NoError(t, err)
		lines := strings.Split(string(data), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "Last published on 2024-03-01 12:30:00.000000"), lines[0])
		assert.Equal(t, []string{"README,2", "bin/tool,5"}, lines[1:])

		entries := []sourceid.Entry{{ID: sourceid.ID{Component: "app", Kind: "code"}, Revision: "cafe"}}
		require.NoError(t, WriteSourcesFile(fs, "pub", entries))

		read, err := ReadSourcesFile(fs, "pub")
		require.NoError(t, err)
		assert.Equal(t, entries, read)
	})

	t.Run("missing sources file", func(t *testing.T) {
		_, err := ReadSourcesFile(fs, "elsewhere")
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to read source.txt")
	})
}
