package hcl_adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/sandplan/internal/catalog"
	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Decoder turns HCL catalog files into catalogs.
type Decoder struct {
	parser *hclparse.Parser
}

// NewDecoder creates a decoder. A decoder caches parsed files and is not
// safe for concurrent use.
func NewDecoder() *Decoder {
	return &Decoder{parser: hclparse.NewParser()}
}

// evalContext is used for every expression that is not a template.
func evalContext() *hcl.EvalContext {
	platforms := make([]cty.Value, 0, len(catalog.AllPlatforms))
	for _, p := range catalog.AllPlatforms {
		platforms = append(platforms, cty.StringVal(p))
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"all_platforms":     cty.ListVal(platforms),
			"wildcard_platform": cty.StringVal(catalog.WildcardPlatform),
		},
	}
}

// DecodeFile reads and decodes one catalog file.
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*catalog.Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HCL file %s: %w", path, err)
	}
	return d.Decode(ctx, path, src)
}

// Decode decodes catalog source. filename is only used in diagnostics.
func (d *Decoder) Decode(ctx context.Context, filename string, src []byte) (*catalog.Catalog, error) {
	logger := ctxlog.FromContext(ctx).With("file", filename)

	file, diags := d.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	evalCtx := evalContext()
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if attrs, _ := root.Remain.JustAttributes(); len(attrs) > 0 {
		for name := range attrs {
			logger.Warn("Ignoring unknown top level attribute.", "attribute", name)
		}
	}

	cat := &catalog.Catalog{}
	for _, a := range root.Aspects {
		tmpl, err := translateAspect(a)
		if err != nil {
			return nil, err
		}
		cat.Aspects = append(cat.Aspects, tmpl)
	}
	for _, c := range root.Components {
		comp, err := translateComponent(c, evalCtx)
		if err != nil {
			return nil, err
		}
		cat.Components = append(cat.Components, comp)
	}
	for _, s := range root.Sandboxes {
		cat.SandboxTypes = append(cat.SandboxTypes, translateSandbox(s))
	}
	for _, c := range root.Commands {
		cat.Commands = append(cat.Commands, translateCommand(c))
	}

	logger.Debug("HCL catalog decoded.",
		"components", len(cat.Components), "aspects", len(cat.Aspects),
		"sandbox_types", len(cat.SandboxTypes), "commands", len(cat.Commands))
	return cat, nil
}
