package hcl_adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHCL = `
aspect "code" {
  type = "code"
  vcsrepo {
    provider = "git"
    source   = "git@example.com:${user.git.name}/${component}.git"
    revision = "${branch}"
  }
}

aspect "built" {
  type = "built"
  vcsrepo {
    provider = "git"
    source   = "git@example.com:built/${component}/${built}.git"
    revision = "${ Branch }"
  }
}

component "app" {
  attributes = {
    integrate = false
    platforms = all_platforms
    priority  = 3
  }
  depends "lib" {}
  depends "zlib" { type = "built" }

  aspect "test" {
    type = "test"
    vcsrepo {
      provider = "bzr"
      source   = "bzr://host/app/tests"
      revision = "-1"
    }
  }

  command "build" {
    command = ["make", "all"]
  }
}

component "lib" {}

component "zlib" {
  attributes = { terminal_dependency = true }
}

sandbox "^dev" {
  default  = true
  commands = ["build"]
  dependency_types = {
    code = ["code", "test"]
  }
  env = { CC = "clang" }
}

command "build" {
  type    = "shell"
  command = ["make"]
  cwd     = "src"
}
`

func TestDecode_Catalog(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)

	// --- Act ---
	cat, err := NewDecoder().Decode(ctx, "catalog.hcl", []byte(sampleHCL))

	// --- Assert ---
	require.NoError(t, err)

	platforms := make([]any, 0, len(catalog.AllPlatforms))
	for _, p := range catalog.AllPlatforms {
		platforms = append(platforms, p)
	}
	expected := &catalog.Catalog{
		Aspects: []catalog.AspectTemplate{
			{Name: "code", Type: "code", Repo: catalog.Repo{
				Provider: "git", Source: "git@example.com:${user.git.name}/${component}.git", Revision: "${branch}",
			}},
			{Name: "built", Type: "built", Repo: catalog.Repo{
				Provider: "git", Source: "git@example.com:built/${component}/${built}.git", Revision: "${Branch}",
			}},
		},
		Components: []*catalog.Component{
			{
				Name:       "app",
				Attributes: map[string]any{"integrate": false, "platforms": platforms, "priority": 3},
				Dependencies: []catalog.DependencyEdge{
					{Component: "lib", Kind: "code"},
					{Component: "zlib", Kind: "built"},
				},
				Aspects: []catalog.AspectTemplate{{Name: "test", Type: "test", Repo: catalog.Repo{
					Provider: "bzr", Source: "bzr://host/app/tests", Revision: "-1",
				}}},
				Commands: []catalog.Command{{Name: "build", Command: []string{"make", "all"}}},
			},
			{Name: "lib", Attributes: map[string]any{}},
			{Name: "zlib", Attributes: map[string]any{"terminal_dependency": true}},
		},
		SandboxTypes: []catalog.SandboxType{{
			Name: "^dev", Default: true, Commands: []string{"build"},
			DependencyTypes: catalog.DependencyTypes{"code": {"code", "test"}},
			Env:             map[string]string{"CC": "clang"},
		}},
		Commands: []catalog.Command{{Name: "build", Type: "shell", Command: []string{"make"}, Cwd: "src"}},
	}
	if diff := cmp.Diff(expected, cat, cmpopts.IgnoreUnexported(catalog.Catalog{})); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}

	app, err := cat.Component("app")
	require.NoError(t, err)
	assert.False(t, app.Integrates())
	assert.Equal(t, catalog.AllPlatforms, app.Platforms())
	zlib, err := cat.Component("zlib")
	require.NoError(t, err)
	assert.True(t, zlib.IsTerminal(catalog.KindBuilt))
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		src         string
		errContains string
	}{
		{
			name:        "syntax error",
			src:         `component "a" {`,
			errContains: "failed to parse HCL file",
		},
		{
			name:        "missing required attribute",
			src:         `aspect "code" { vcsrepo { provider = "git" } }`,
			errContains: "failed to decode HCL file",
		},
		{
			name:        "aspect without repository",
			src:         `aspect "code" { type = "code" }`,
			errContains: "aspect 'code' has no vcsrepo block",
		},
		{
			name:        "attributes are not an object",
			src:         `component "a" { attributes = "x" }`,
			errContains: "attributes of component 'a' must be an object",
		},
		{
			name: "function call in template",
			src: `aspect "code" {
  type = "code"
  vcsrepo {
    provider = "git"
    source   = "${upper(component)}"
  }
}`,
			errContains: "in aspect 'code' source",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			_, err := NewDecoder().Decode(ctx, tc.name+".hcl", []byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errContains)
		})
	}
}

func TestDecodeFile(t *testing.T) {
	ctx, _ := testutil.Context(t)
	path := filepath.Join(t.TempDir(), "catalog.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`component "solo" {}`), 0o644))

	cat, err := NewDecoder().DecodeFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, cat.Names())

	_, err = NewDecoder().DecodeFile(ctx, filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
}

func TestPlaceholderString_LiteralsAndEscapes(t *testing.T) {
	ctx, _ := testutil.Context(t)
	src := `aspect "a" {
  type = "code"
  vcsrepo {
    provider = "git"
    source   = "plain-${component}-$${literal}"
    revision = 42
  }
}`
	cat, err := NewDecoder().Decode(ctx, "a.hcl", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "plain-${component}-${literal}", cat.Aspects[0].Repo.Source)
	assert.Equal(t, "42", cat.Aspects[0].Repo.Revision)
}
