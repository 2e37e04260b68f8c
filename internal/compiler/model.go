package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/ctslab/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// Schema returns the #Model definition compiled in ctx.
func Schema(ctx *cue.Context) (cue.Value, error) {
	s := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return s.LookupPath(cue.MakePath(cue.Def("#Model"))), nil
}

// CompileModel parses a CUE value into a ModelSpec.
//
// The value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: sand: { ... }`)
//	spec, err := CompileModel(v.LookupPath(cue.ParsePath("model.sand")))
//
// v is unified with the embedded #Model schema first, so defaults are
// applied and unknown fields are rejected. State names may stand in for
// state numbers anywhere a node state is expected.
func CompileModel(v cue.Value) (*ir.ModelSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema, err := Schema(v.Context())
	if err != nil {
		return nil, err
	}
	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ModelSpec{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	if d := u.LookupPath(cue.ParsePath("description")); d.Exists() {
		if spec.Description, err = d.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if err := u.LookupPath(cue.ParsePath("states")).Decode(&spec.States); err != nil {
		return nil, formatCUEError(err)
	}
	names := stateIndex(spec.States)

	spec.Transitions, err = parseTransitions(u.LookupPath(cue.ParsePath("transitions")), names)
	if err != nil {
		return nil, err
	}

	if err := u.LookupPath(cue.ParsePath("grid")).Decode(&spec.Grid); err != nil {
		return nil, formatCUEError(err)
	}

	spec.Initial, err = parseInitial(u.LookupPath(cue.ParsePath("initial")), names)
	if err != nil {
		return nil, err
	}

	if p := u.LookupPath(cue.ParsePath("properties")); p.Exists() {
		spec.Properties = &ir.PropertySpec{}
		if err := p.Decode(spec.Properties); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if s := u.LookupPath(cue.ParsePath("seed")); s.Exists() {
		if spec.Seed, err = s.Int64(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	return spec, nil
}

func stateIndex(states []string) map[string]int {
	m := make(map[string]int, len(states))
	for i, s := range states {
		m[s] = i
	}
	return m
}

// parseTransitions extracts the transition list in declaration order.
func parseTransitions(v cue.Value, names map[string]int) ([]ir.TransitionSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.TransitionSpec
	for i := 0; iter.Next(); i++ {
		xv := iter.Value()
		field := fmt.Sprintf("transitions[%d]", i)

		var xn ir.TransitionSpec
		if n := xv.LookupPath(cue.ParsePath("name")); n.Exists() {
			if xn.Name, err = n.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if xn.From, err = parseTriple(xv.LookupPath(cue.ParsePath("from")), names, field+".from"); err != nil {
			return nil, err
		}
		if xn.To, err = parseTriple(xv.LookupPath(cue.ParsePath("to")), names, field+".to"); err != nil {
			return nil, err
		}
		if xn.Rate, err = xv.LookupPath(cue.ParsePath("rate")).Float64(); err != nil {
			return nil, formatCUEError(err)
		}
		if xn.Swap, err = xv.LookupPath(cue.ParsePath("swap")).Bool(); err != nil {
			return nil, formatCUEError(err)
		}
		if cb := xv.LookupPath(cue.ParsePath("callback")); cb.Exists() {
			if xn.Callback, err = cb.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		out = append(out, xn)
	}
	return out, nil
}

// parseTriple reads [tail, head] or [tail, head, orientation].
func parseTriple(v cue.Value, names map[string]int, field string) (ir.Triple, error) {
	iter, err := v.List()
	if err != nil {
		return ir.Triple{}, formatCUEError(err)
	}

	var parts []int
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		if i == 2 {
			o, err := elem.Int64()
			if err != nil {
				return ir.Triple{}, formatCUEError(err)
			}
			parts = append(parts, int(o))
			continue
		}
		s, err := parseState(elem, names, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return ir.Triple{}, err
		}
		parts = append(parts, s)
	}

	t := ir.Triple{Tail: parts[0], Head: parts[1]}
	if len(parts) == 3 {
		t.Orientation = parts[2]
	}
	return t, nil
}

// parseState accepts a state number or a state name.
func parseState(v cue.Value, names map[string]int, field string) (int, error) {
	v, _ = v.Default()
	if v.Kind() == cue.StringKind {
		name, err := v.String()
		if err != nil {
			return 0, formatCUEError(err)
		}
		s, ok := names[name]
		if !ok {
			return 0, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown state %q", name),
				Pos:     v.Pos(),
			}
		}
		return s, nil
	}
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func parseStateList(v cue.Value, names map[string]int, field string) ([]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []int{}
	for i := 0; iter.Next(); i++ {
		s, err := parseState(iter.Value(), names, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseInitial(v cue.Value, names map[string]int) (ir.InitialSpec, error) {
	var spec ir.InitialSpec
	var err error

	if spec.Pattern, err = v.LookupPath(cue.ParsePath("pattern")).String(); err != nil {
		return spec, formatCUEError(err)
	}
	if spec.Fill, err = parseState(v.LookupPath(cue.ParsePath("fill")), names, "initial.fill"); err != nil {
		return spec, err
	}
	if vals := v.LookupPath(cue.ParsePath("values")); vals.Exists() {
		if spec.Values, err = parseStateList(vals, names, "initial.values"); err != nil {
			return spec, err
		}
	}
	if st := v.LookupPath(cue.ParsePath("states")); st.Exists() {
		if spec.States, err = parseStateList(st, names, "initial.states"); err != nil {
			return spec, err
		}
	}
	return spec, nil
}
