package hcl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

var localsSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "locals"}},
}

// splitLocals separates the `locals` blocks of every file from the rest of
// its body. It returns the collected local attributes and the remaining
// bodies in file order.
func splitLocals(files []*hcl.File) (map[string]*hcl.Attribute, []hcl.Body, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	attrs := make(map[string]*hcl.Attribute)
	remains := make([]hcl.Body, 0, len(files))

	for _, f := range files {
		content, remain, d := f.Body.PartialContent(localsSchema)
		diags = append(diags, d...)
		remains = append(remains, remain)
		if content == nil {
			continue
		}

		for _, block := range content.Blocks {
			blockAttrs, d := block.Body.JustAttributes()
			diags = append(diags, d...)
			for name, attr := range blockAttrs {
				if prev, exists := attrs[name]; exists {
					diags = append(diags, &hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Duplicate local value",
						Detail:   fmt.Sprintf("A local value named %q was already defined at %s.", name, prev.NameRange.String()),
						Subject:  attr.NameRange.Ptr(),
					})
					continue
				}
				attrs[name] = attr
			}
		}
	}

	return attrs, remains, diags
}

// evalLocals evaluates the local attributes in dependency order. Locals may
// reference each other; a reference that can never be satisfied is reported
// as an error on the attribute that makes it.
func evalLocals(attrs map[string]*hcl.Attribute) (map[string]cty.Value, hcl.Diagnostics) {
	values := make(map[string]cty.Value, len(attrs))
	pending := make(map[string]*hcl.Attribute, len(attrs))
	for name, attr := range attrs {
		pending[name] = attr
	}

	for len(pending) > 0 {
		progressed := false

		for _, name := range sortedKeys(pending) {
			attr := pending[name]
			if !localsReady(attr.Expr, values) {
				continue
			}
			val, diags := attr.Expr.Value(newEvalContext(values))
			if diags.HasErrors() {
				return nil, diags
			}
			values[name] = val
			delete(pending, name)
			progressed = true
		}

		if !progressed {
			var diags hcl.Diagnostics
			for _, name := range sortedKeys(pending) {
				attr := pending[name]
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unresolvable local value",
					Detail:   fmt.Sprintf("local.%s refers to an undefined or circularly defined local value.", name),
					Subject:  attr.Range.Ptr(),
				})
			}
			return nil, diags
		}
	}

	return values, nil
}

// localsReady reports whether every local.* reference in expr is resolved.
func localsReady(expr hcl.Expression, values map[string]cty.Value) bool {
	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "local" {
			continue
		}
		if len(traversal) < 2 {
			return false
		}
		step, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			return false
		}
		if _, ok := values[step.Name]; !ok {
			return false
		}
	}
	return true
}

// newEvalContext returns the evaluation context shared by every expression of
// a task file.
func newEvalContext(locals map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"local": cty.ObjectVal(locals),
		},
		Functions: functions(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
