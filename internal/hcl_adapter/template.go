package hcl_adapter

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// isExprDefined reports whether an optional attribute was written in the
// source. Omitted optional attributes decode to zero-width expressions.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// placeholderString renders a template expression back to its source form,
// turning every variable reference into a `${name}` placeholder and
// evaluating the literal parts.
func placeholderString(expr hcl.Expression) (string, error) {
	if !isExprDefined(expr) {
		return "", nil
	}
	var b strings.Builder
	if err := writePlaceholder(&b, expr); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writePlaceholder(b *strings.Builder, expr hcl.Expression) error {
	switch e := expr.(type) {
	case *hclsyntax.TemplateWrapExpr:
		return writePlaceholder(b, e.Wrapped)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			if err := writePlaceholder(b, part); err != nil {
				return err
			}
		}
		return nil
	case *hclsyntax.ScopeTraversalExpr:
		b.WriteString("${")
		b.Write(hclwrite.TokensForTraversal(e.Traversal).Bytes())
		b.WriteString("}")
		return nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("%s: unsupported template expression: %w", expr.Range(), diags)
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil || str.IsNull() {
		return fmt.Errorf("%s: template value must be a string", expr.Range())
	}
	b.WriteString(str.AsString())
	return nil
}
