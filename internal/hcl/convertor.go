package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// bodyDecoder is the HCL implementation of config.Decoder. It keeps the raw
// step body and the evaluation context of the file it came from.
type bodyDecoder struct {
	body    hcl.Body
	evalCtx *hcl.EvalContext
}

// Decode implements config.Decoder.
func (d *bodyDecoder) Decode(target any) error {
	if diags := gohcl.DecodeBody(d.body, d.evalCtx, target); diags.HasErrors() {
		return diags
	}
	return nil
}

// decodeRun evaluates a `run` expression into a unit reference.
func decodeRun(expr hcl.Expression, evalCtx *hcl.EvalContext) (*config.Ref, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	ref, err := refFromValue(val)
	if err != nil {
		rng := expr.Range()
		return nil, eris.Wrapf(err, "%s: invalid run value", rng.String())
	}
	return ref, nil
}

// refFromValue converts a string, a series()/parallel() result, or a list of
// those into a config.Ref. A plain list means series.
func refFromValue(val cty.Value) (*config.Ref, error) {
	if val.IsNull() {
		return nil, eris.New("run must not be null")
	}
	if !val.IsWhollyKnown() {
		return nil, eris.New("run must be known at load time")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		name := val.AsString()
		if name == "" {
			return nil, eris.New("unit name must not be empty")
		}
		return config.NameRef(name), nil

	case ty.IsObjectType() && ty.HasAttribute(compositionMode) && ty.HasAttribute(compositionMembers):
		members, err := refsFromSequence(val.GetAttr(compositionMembers))
		if err != nil {
			return nil, err
		}
		switch val.GetAttr(compositionMode).AsString() {
		case "parallel":
			return config.ParallelRef(members...), nil
		default:
			return config.SeriesRef(members...), nil
		}

	case ty.IsTupleType() || ty.IsListType():
		members, err := refsFromSequence(val)
		if err != nil {
			return nil, err
		}
		return config.SeriesRef(members...), nil
	}

	return nil, eris.Errorf("expected a unit name, series(), parallel() or a list, got %s", ty.FriendlyName())
}

func refsFromSequence(val cty.Value) ([]*config.Ref, error) {
	var out []*config.Ref
	it := val.ElementIterator()
	for i := 0; it.Next(); i++ {
		_, el := it.Element()
		ref, err := refFromValue(el)
		if err != nil {
			return nil, eris.Wrapf(err, "member %d", i)
		}
		out = append(out, ref)
	}
	return out, nil
}
