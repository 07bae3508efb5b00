package hcl

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Attribute names of the object produced by series() and parallel().
const (
	compositionMode    = "__mode"
	compositionMembers = "members"
)

// functions returns the function table available in task files.
func functions() map[string]function.Function {
	return map[string]function.Function{
		"series":   compositionFunc("series"),
		"parallel": compositionFunc("parallel"),
		"format":   stdlib.FormatFunc,
		"join":     stdlib.JoinFunc,
		"concat":   stdlib.ConcatFunc,
		"upper":    stdlib.UpperFunc,
		"lower":    stdlib.LowerFunc,
	}
}

// compositionFunc builds series()/parallel(). The result is an object
// tagged with the mode; refFromValue turns it back into a config.Ref.
func compositionFunc(mode string) function.Function {
	return function.New(&function.Spec{
		Description: "Composes units into a " + mode + " group.",
		VarParam: &function.Parameter{
			Name: "units",
			Type: cty.DynamicPseudoType,
		},
		Type: func(args []cty.Value) (cty.Type, error) {
			types := make([]cty.Type, len(args))
			for i, a := range args {
				types[i] = a.Type()
			}
			return cty.Object(map[string]cty.Type{
				compositionMode:    cty.String,
				compositionMembers: cty.Tuple(types),
			}), nil
		},
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.ObjectVal(map[string]cty.Value{
				compositionMode:    cty.StringVal(mode),
				compositionMembers: cty.TupleVal(args),
			}), nil
		},
	})
}
