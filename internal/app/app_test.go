package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/sandplan/internal/inventory"
	"github.com/specialistvlad/sandplan/internal/manifest"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/sourceid"
	"github.com/specialistvlad/sandplan/internal/tree"
	"github.com/specialistvlad/sandplan/internal/vcs/vcstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	branch   = "v74_release"
	platform = "built.linux_x86-64"
	hashA    = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB    = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

const catalogYAML = `
aspects:
  - name: code
    type: code
    vcsrepo: {provider: git, source: "git@example.com:${user.git.name}/${component}.git", revision: "${branch}"}
  - name: built
    type: built
    vcsrepo: {provider: git, source: "git@example.com:built/${component}/${built}.git", revision: "${branch}"}
  - name: test
    type: test
    vcsrepo: {provider: git, source: "git@example.com:test/${component}.git", revision: master}
  - name: report
    type: report
    vcsrepo: {provider: git, source: "git@example.com:report/${component}.git", revision: master}
components:
  - name: app
    dependencies:
      - {component: lib, type: code}
      - {component: tools, type: built}
  - name: lib
    dependencies: []
  - name: tools
    dependencies:
      - {component: zlib, type: built}
  - name: zlib
    dependencies: []
  - name: buildscripts
    dependencies: []
sandbox_types:
  - name: ".*"
    default: true
    commands: [build]
commands:
  - name: build
    command: [make, all]
`

const localConfigJSON = `# local settings
{
  "vcsrepo": {"path": "%PATH%", "provider": "git", "source": "git@example.com:catalog.git", "revision": "master"},
  "user": {"git": {"name": "kim"}}
}
`

type fixture struct {
	dir     string
	catalog string
	local   string
	fake    *vcstest.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		catalog: filepath.Join(dir, "catalog.yaml"),
		local:   filepath.Join(dir, "sand.conf"),
		fake:    vcstest.New(),
	}
	require.NoError(t, os.WriteFile(f.catalog, []byte(catalogYAML), 0o644))
	conf := strings.ReplaceAll(localConfigJSON, "%PATH%", filepath.Join(dir, "catalog-repo"))
	require.NoError(t, os.WriteFile(f.local, []byte(conf), 0o644))
	return f
}

// run executes cfg against the fixture and returns the command output.
func (f *fixture) run(t *testing.T, cfg Config) (string, error) {
	t.Helper()
	if cfg.LocalConfig == "" {
		cfg.LocalConfig = f.local
	}
	if cfg.Branch == "" {
		cfg.Branch = branch
	}
	if cfg.Platform == "" {
		cfg.Platform = platform
	}
	if cfg.SandboxPath == "" {
		cfg.SandboxPath = filepath.Join(f.dir, "sb")
	}
	valid, err := NewConfig(cfg)
	require.NoError(t, err)

	var out, logs bytes.Buffer
	a, err := NewApp(&out, &logs, valid, f.fake)
	require.NoError(t, err)
	err = a.Run(context.Background())
	if os.Getenv("SANDPLAN_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	return out.String(), err
}

func builtSource(component string) string {
	return "git@example.com:built/" + component + "/" + platform + ".git"
}

func TestRun_Types(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)

	// --- Act ---
	out, err := f.run(t, Config{Command: CmdTypes, CatalogPath: f.catalog, Components: []string{"app"}})

	// --- Assert ---
	require.NoError(t, err)
	expected := "app: code\n" +
		"lib: code\n" +
		"tools: " + platform + "\n" +
		"zlib: " + platform + "\n"
	assert.Equal(t, expected, out)
}

func TestRun_Tree(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, Config{Command: CmdTree, CatalogPath: f.catalog, Components: []string{"app"}})

	require.NoError(t, err)
	for _, name := range []string{"app", "lib", "tools", "zlib"} {
		assert.Contains(t, out, name)
	}
}

func TestRun_Deps(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	out, err := f.run(t, Config{Command: CmdDeps, CatalogPath: f.catalog, Components: []string{"app"}, Dir: dir})

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.FileExists(t, filepath.Join(dir, tree.DependenciesFile))
	assert.FileExists(t, filepath.Join(dir, tree.DependencyTreeFile))
}

func TestRun_Aspects(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)

	// --- Act ---
	out, err := f.run(t, Config{Command: CmdAspects, CatalogPath: f.catalog, Components: []string{"app"}, Output: "json"})

	// --- Assert ---
	require.NoError(t, err)
	var got struct {
		Branch   string `json:"branch"`
		Platform string `json:"build_type"`
		Aspects  []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"aspects"`
		Commands []struct {
			Name string `json:"name"`
		} `json:"commands"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, branch, got.Branch)
	assert.Equal(t, platform, got.Platform)
	require.Len(t, got.Commands, 1)
	assert.Equal(t, "build", got.Commands[0].Name)

	var names []string
	for _, a := range got.Aspects {
		names = append(names, a.Name+"."+a.Type)
	}
	assert.Contains(t, names, "app.code")
	assert.Contains(t, names, "tools.built")
	assert.Contains(t, names, "buildscripts.code", "build scripts are always part of the sandbox")
}

func TestRun_BuildUpTo(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	f.fake.SetSources(builtSource("tools"), branch,
		sourceid.Entry{ID: sourceid.FromResolvedKind("zlib", platform), Revision: hashA})
	f.fake.SetRemoteHead(builtSource("zlib"), branch, hashB)

	// --- Act ---
	out, err := f.run(t, Config{Command: CmdBuildUpTo, CatalogPath: f.catalog, Components: []string{"tools"}})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "tools\n", out)
}

func TestRun_BuildUpTo_UpToDate(t *testing.T) {
	f := newFixture(t)
	f.fake.SetSources(builtSource("tools"), branch,
		sourceid.Entry{ID: sourceid.FromResolvedKind("zlib", platform), Revision: hashA})
	f.fake.SetRemoteHead(builtSource("zlib"), branch, hashA)

	out, err := f.run(t, Config{Command: CmdBuildUpTo, CatalogPath: f.catalog, Components: []string{"tools", "zlib"}})

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_Changesets(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	f.fake.SetRemoteHead("git@example.com:kim/app.git", branch, hashA)

	// --- Act ---
	out, err := f.run(t, Config{Command: CmdChangesets, CatalogPath: f.catalog, Output: "json"})

	// --- Assert ---
	require.NoError(t, err)
	var got []inventory.Changeset
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, inventory.Changeset{
		Branch: branch, Name: "app", Type: "code",
		Repo:      got[0].Repo,
		Changeset: hashA,
	}, got[0])
	assert.Equal(t, "git@example.com:kim/app.git", got[0].Repo.Source)
}

func TestRun_PublishFiles(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	sandbox := filepath.Join(f.dir, "sb")
	f.fake.SetHead(filepath.Join(sandbox, "code", "app"), hashA)
	f.fake.SetHead(filepath.Join(sandbox, "code", "lib"), hashB)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.bin"), []byte("binary"), 0o644))

	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	now = func() time.Time { return published }
	t.Cleanup(func() { now = time.Now })

	// --- Act ---
	out, err := f.run(t, Config{Command: CmdPublishFiles, CatalogPath: f.catalog, Components: []string{"app"}, Dir: dir})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, hashA+"\n", out)

	sources, err := os.ReadFile(filepath.Join(dir, manifest.SourcesFile))
	require.NoError(t, err)
	assert.Contains(t, string(sources), "app.code: "+hashA)
	assert.Contains(t, string(sources), "lib.code: "+hashB)
	assert.Contains(t, string(sources), "tools."+platform+": "+manifest.NoRevision)
	assert.Contains(t, string(sources), "buildscripts.code: "+manifest.NoRevision)

	listing, err := os.ReadFile(filepath.Join(dir, manifest.ListingFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(listing), "Last published on 2024-03-01 12:00:00"))
	assert.Contains(t, string(listing), "app.bin,6")
}

func TestRun_CatalogRepository(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	repoPath := filepath.Join(f.dir, "catalog-repo")
	require.NoError(t, os.MkdirAll(repoPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "config.json"), []byte(`{
  "aspects": [{"name": "code", "type": "code",
    "vcsrepo": {"provider": "git", "source": "git@example.com:${component}.git", "revision": "${branch}"}}],
  "components": [{"name": "solo", "dependencies": []}]
}`), 0o644))
	source := "git@example.com:catalog.git"
	f.fake.SetHead(repoPath, hashA)
	f.fake.SetRemoteHead(source, "master", hashA)
	f.fake.SetRemoteHead(source, branch, hashB)

	t.Run("checks out the requested branch", func(t *testing.T) {
		f.fake.SetBranches(source, "master", branch)

		out, err := f.run(t, Config{Command: CmdTypes, Components: []string{"solo"}})

		require.NoError(t, err)
		assert.Equal(t, "solo: code\n", out)
	})

	t.Run("unsupported branch", func(t *testing.T) {
		f.fake.SetBranches(source, "master")

		_, err := f.run(t, Config{Command: CmdTypes, Components: []string{"solo"}})

		require.Error(t, err)
		assert.ErrorIs(t, err, planerr.ErrNotFound)
		assert.Equal(t, "Branch v74_release is not supported. Available branches: master", err.Error())
	})
}

func TestRun_ConfigurationErrorsSurface(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, Config{Command: CmdTypes, CatalogPath: f.catalog, Components: []string{"ghost"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, planerr.ErrNotFound)
}

func TestRun_PublishFilesAndPush(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	sandbox := filepath.Join(f.dir, "sb")
	f.fake.SetHead(filepath.Join(sandbox, "code", "app"), hashA)
	builtPath := filepath.Join(sandbox, platform, "app")

	// --- Act ---
	out, err := f.run(t, Config{Command: CmdPublishFiles, CatalogPath: f.catalog, Components: []string{"app"}, Push: true})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, hashA+"\n", out)
	assert.FileExists(t, filepath.Join(builtPath, manifest.SourcesFile))
	assert.Equal(t, []string{"Publish app built from " + hashA}, f.fake.Published(builtPath))
}
