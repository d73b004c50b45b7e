// Package localconf reads the per-user settings file: where the catalog
// repository lives and which user name to present to each VCS provider.
package localconf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/planerr"
	"github.com/specialistvlad/sandplan/internal/vcs"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the settings file looked up in the home directory.
	FileName = ".sand.conf"
	// SystemPath is used when the user has no settings file of their own.
	SystemPath = "/opt/sandman/etc/config.json"
	// CatalogFile is the catalog inside the catalog repository.
	CatalogFile = "config.json"
)

var systemUserRegex = regexp.MustCompile(`(?i)\$\s*\{\s*system_user\s*\}`)

// Repo locates the catalog repository and its local checkout.
type Repo struct {
	Path     string `json:"path" yaml:"path"`
	Provider string `json:"provider" yaml:"provider"`
	Source   string `json:"source" yaml:"source"`
	Revision string `json:"revision" yaml:"revision"`
}

// User is the identity used for one provider.
type User struct {
	Name string `json:"name" yaml:"name"`
}

// Config is the parsed settings file.
type Config struct {
	VCSRepo Repo            `json:"vcsrepo" yaml:"vcsrepo"`
	User    map[string]User `json:"user" yaml:"user"`
}

// DefaultPath returns ~/.sand.conf when it exists, SystemPath otherwise.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return SystemPath
}

// Load reads, validates and expands the settings file at path. YAML is used
// for .yaml and .yml files, JSON with '#' comment lines for anything else.
func Load(ctx context.Context, path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, planerr.Configf(planerr.CodeNotFound, "Config file '%s' does not exist", path)
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, planerr.Configf(planerr.CodeInvalid, "Config File '%s' contains invalid yaml. %v", path, err)
		}
	default:
		if err := json.Unmarshal(stripComments(raw), &cfg); err != nil {
			return nil, planerr.Configf(planerr.CodeInvalid, "Config File '%s' contains invalid json. %v", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.expand(systemUser())
	ctxlog.FromContext(ctx).Debug("Local config loaded.", "path", path, "catalog_repo", cfg.VCSRepo.Source)
	return &cfg, nil
}

func stripComments(raw []byte) []byte {
	var buf bytes.Buffer
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Validate checks that every required field is present.
func (c *Config) Validate() error {
	missing := func(field string) error {
		return planerr.Configf(planerr.CodeInvalid,
			"The local configuration file is not valid because: '%s' is a required property", field)
	}
	switch {
	case c.VCSRepo.Path == "":
		return missing("vcsrepo.path")
	case c.VCSRepo.Provider == "":
		return missing("vcsrepo.provider")
	case c.VCSRepo.Source == "":
		return missing("vcsrepo.source")
	case c.User == nil:
		return missing("user")
	}
	for provider, u := range c.User {
		if u.Name == "" {
			return missing("user." + provider + ".name")
		}
	}
	return nil
}

func systemUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// expand substitutes ${system_user} in the repository fields and user names.
func (c *Config) expand(name string) {
	sub := func(s string) string { return systemUserRegex.ReplaceAllLiteralString(s, name) }
	c.VCSRepo.Path = sub(c.VCSRepo.Path)
	c.VCSRepo.Provider = sub(c.VCSRepo.Provider)
	c.VCSRepo.Source = sub(c.VCSRepo.Source)
	c.VCSRepo.Revision = sub(c.VCSRepo.Revision)
	for provider, u := range c.User {
		c.User[provider] = User{Name: sub(u.Name)}
	}
}

// Users returns the provider to user name table used in aspect templates.
func (c *Config) Users() map[string]string {
	out := make(map[string]string, len(c.User))
	for provider, u := range c.User {
		out[provider] = u.Name
	}
	return out
}

// Providers returns the providers the config has an identity for, sorted.
func (c *Config) Providers() []string {
	out := make([]string, 0, len(c.User))
	for provider := range c.User {
		out = append(out, provider)
	}
	sort.Strings(out)
	return out
}

// Repository returns the catalog repository checkout.
func (c *Config) Repository() vcs.Repository {
	return vcs.Repository{
		Path:     c.VCSRepo.Path,
		Provider: c.VCSRepo.Provider,
		Source:   c.VCSRepo.Source,
		Revision: c.VCSRepo.Revision,
		Type:     catalog.KindCode,
	}
}

// CatalogPath is the catalog file inside the catalog repository checkout.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.VCSRepo.Path, CatalogFile)
}
