package hcl_adapter

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ctyToNative converts a cty.Value to its most natural Go counterpart, so
// component attributes look the same whatever format the catalog was
// written in. Whole numbers become int, other numbers float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			var i int
			if err := gocty.FromCtyValue(v, &i); err == nil {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			slice = append(slice, native)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported attribute type %s", ty.FriendlyName())
	}
}
