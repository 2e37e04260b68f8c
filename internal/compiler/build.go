package compiler

import (
	"fmt"

	"github.com/roach88/ctslab/internal/engine"
	"github.com/roach88/ctslab/internal/grid"
	"github.com/roach88/ctslab/internal/ir"
)

// Model is a validated model materialised into engine inputs.
type Model struct {
	Spec         *ir.ModelSpec
	Topology     *grid.Topology
	Transitions  []engine.Transition
	Initial      []int
	PropertyData []float64
	PropReset    *float64
}

// Build validates spec and materialises its grid, transitions, initial
// states and property data. Returns ValidationErrors when Validate reports
// anything.
func Build(spec *ir.ModelSpec) (*Model, error) {
	if errs := Validate(spec); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	topo, err := grid.FromSpec(spec.Grid)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}

	m := &Model{
		Spec:     spec,
		Topology: topo,
		Initial:  initialStates(spec.Initial, spec.Grid, topo.NumNodes()),
	}

	for _, xs := range spec.Transitions {
		xn := engine.Transition{
			From:           xs.From,
			To:             xs.To,
			Rate:           xs.Rate,
			Name:           xs.Name,
			SwapProperties: xs.Swap,
		}
		if xs.Callback != "" {
			// Validate already checked the name.
			xn.Update, _ = engine.LookupCallback(xs.Callback)
		}
		m.Transitions = append(m.Transitions, xn)
	}

	if p := spec.Properties; p != nil {
		if p.Values != nil {
			m.PropertyData = append([]float64(nil), p.Values...)
		} else {
			m.PropertyData = make([]float64, topo.NumNodes())
			for i := range m.PropertyData {
				m.PropertyData[i] = p.Fill
			}
		}
		if p.Reset != nil {
			r := *p.Reset
			m.PropReset = &r
		}
	}

	return m, nil
}

// Options returns the engine options the model implies: its seed and
// property tracking.
func (m *Model) Options() []engine.Option {
	seed := m.Spec.Seed
	if seed == 0 {
		seed = engine.DefaultSeed
	}
	opts := []engine.Option{engine.WithSeed(seed)}
	if m.PropertyData != nil {
		opts = append(opts, engine.WithPropertyData(m.PropertyData))
	}
	if m.PropReset != nil {
		opts = append(opts, engine.WithPropReset(*m.PropReset))
	}
	return opts
}

// NewEngine constructs an engine for the model. extra options are applied
// after the model's own, so they can override the seed.
func (m *Model) NewEngine(extra ...engine.Option) (*engine.Engine, error) {
	opts := append(m.Options(), extra...)
	return engine.New(m.Topology, m.Spec.States, m.Transitions, m.Initial, opts...)
}

func numNodes(g ir.GridSpec) int {
	if g.Kind == ir.GridChain {
		return g.Cols
	}
	return g.Rows * g.Cols
}

func numOrientations(g ir.GridSpec) int {
	if g.Kind == ir.GridRaster && g.Oriented {
		return 2
	}
	return 1
}

func twoColours(initial ir.InitialSpec) []int {
	if len(initial.States) == 2 {
		return initial.States
	}
	return []int{0, 1}
}

// initialStates expands an initial pattern. Raster patterns use row and
// column; a chain is a single row.
func initialStates(initial ir.InitialSpec, g ir.GridSpec, n int) []int {
	cols := g.Cols
	out := make([]int, n)
	c := twoColours(initial)

	switch initial.Pattern {
	case ir.PatternValues:
		copy(out, initial.Values)
	case ir.PatternAlternate:
		for i := range out {
			out[i] = c[i%2]
		}
	case ir.PatternCheckerboard:
		for i := range out {
			row, col := grid.RowCol(i, cols)
			out[i] = c[(row+col)%2]
		}
	case ir.PatternStripes:
		for i := range out {
			row, _ := grid.RowCol(i, cols)
			out[i] = c[row%2]
		}
	default:
		for i := range out {
			out[i] = initial.Fill
		}
	}
	return out
}
