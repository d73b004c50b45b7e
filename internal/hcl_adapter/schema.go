package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top level block a catalog file may hold.
type fileRoot struct {
	Aspects    []*aspectBlock    `hcl:"aspect,block"`
	Components []*componentBlock `hcl:"component,block"`
	Sandboxes  []*sandboxBlock   `hcl:"sandbox,block"`
	Commands   []*commandBlock   `hcl:"command,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type aspectBlock struct {
	Name string     `hcl:"name,label"`
	Type string     `hcl:"type"`
	Repo *repoBlock `hcl:"vcsrepo,block"`
}

// repoBlock keeps source and revision as raw expressions so their template
// variables survive decoding.
type repoBlock struct {
	Provider string         `hcl:"provider"`
	Source   hcl.Expression `hcl:"source"`
	Revision hcl.Expression `hcl:"revision,optional"`
}

type componentBlock struct {
	Name       string          `hcl:"name,label"`
	Attributes hcl.Expression  `hcl:"attributes,optional"`
	Depends    []*dependsBlock `hcl:"depends,block"`
	Aspects    []*aspectBlock  `hcl:"aspect,block"`
	Commands   []*commandBlock `hcl:"command,block"`
}

type dependsBlock struct {
	Component string `hcl:"component,label"`
	Type      string `hcl:"type,optional"`
}

type sandboxBlock struct {
	Name            string              `hcl:"name,label"`
	Default         bool                `hcl:"default,optional"`
	Commands        []string            `hcl:"commands,optional"`
	DependencyTypes map[string][]string `hcl:"dependency_types,optional"`
	Env             map[string]string   `hcl:"env,optional"`
}

type commandBlock struct {
	Name    string            `hcl:"name,label"`
	Type    string            `hcl:"type,optional"`
	Command []string          `hcl:"command,optional"`
	Cwd     string            `hcl:"cwd,optional"`
	Env     map[string]string `hcl:"env,optional"`
}
