package localconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_SubstitutesSystemUser(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	path := write(t, "sand.conf", `# local settings
{
  "vcsrepo": {
    "path": "/home/${system_user}/.sand/config",
    "provider": "git",
    "source": "git@example.com:${ SYSTEM_USER }/config.git",
    "revision": "master"
  },
  "user": {"git": {"name": "${system_user}"}, "bzr": {"name": "fixed"}}
}`)

	// --- Act ---
	cfg, err := Load(ctx, path)

	// --- Assert ---
	require.NoError(t, err)
	me := systemUser()
	assert.Equal(t, "/home/"+me+"/.sand/config", cfg.VCSRepo.Path)
	assert.Equal(t, "git@example.com:"+me+"/config.git", cfg.VCSRepo.Source)
	assert.Equal(t, map[string]string{"git": me, "bzr": "fixed"}, cfg.Users())
	assert.Equal(t, []string{"bzr", "git"}, cfg.Providers())
	assert.Equal(t, filepath.Join("/home", me, ".sand", "config", "config.json"), cfg.CatalogPath())

	repo := cfg.Repository()
	assert.Equal(t, "git", repo.Provider)
	assert.Equal(t, "code", repo.Type)
	assert.Equal(t, "master", repo.Revision)
}

func TestLoad_YAML(t *testing.T) {
	ctx, _ := testutil.Context(t)
	path := write(t, "sand.yaml", `
vcsrepo:
  path: /tmp/config
  provider: git
  source: file:///srv/config
user:
  git:
    name: kim
`)

	cfg, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"git": "kim"}, cfg.Users())
	assert.Empty(t, cfg.VCSRepo.Revision)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		content   string
		expectErr error
		message   string
	}{
		{
			name:      "invalid json",
			content:   "{",
			expectErr: planerr.ErrInvalid,
		},
		{
			name:      "missing source",
			content:   `{"vcsrepo": {"path": "/p", "provider": "git"}, "user": {}}`,
			expectErr: planerr.ErrInvalid,
			message:   "The local configuration file is not valid because: 'vcsrepo.source' is a required property",
		},
		{
			name:      "missing user",
			content:   `{"vcsrepo": {"path": "/p", "provider": "git", "source": "s"}}`,
			expectErr: planerr.ErrInvalid,
			message:   "The local configuration file is not valid because: 'user' is a required property",
		},
		{
			name:      "user without name",
			content:   `{"vcsrepo": {"path": "/p", "provider": "git", "source": "s"}, "user": {"git": {}}}`,
			expectErr: planerr.ErrInvalid,
			message:   "The local configuration file is not valid because: 'user.git.name' is a required property",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			_, err := Load(ctx, write(t, "sand.conf", tc.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectErr)
			if tc.message != "" {
				assert.Equal(t, tc.message, err.Error())
			}
		})
	}

	ctx, _ := testutil.Context(t)
	_, err := Load(ctx, filepath.Join(t.TempDir(), "missing.conf"))
	assert.ErrorIs(t, err, planerr.ErrNotFound)
}

func TestDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, SystemPath, DefaultPath())

	own := filepath.Join(home, FileName)
	require.NoError(t, os.WriteFile(own, []byte("{}"), 0o644))
	assert.Equal(t, own, DefaultPath())
}
