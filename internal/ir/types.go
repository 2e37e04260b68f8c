package ir

import "fmt"

// Triple identifies a link state by its endpoint node states and orientation.
// Tail and Head follow the link's fixed tail->head direction, so (A,B,o) and
// (B,A,o) are distinct.
type Triple struct {
	Tail        int `json:"tail"`
	Head        int `json:"head"`
	Orientation int `json:"orientation"`
}

// String renders the triple as "(tail,head,orientation)".
func (t Triple) String() string {
	return fmt.Sprintf("(%d,%d,%d)", t.Tail, t.Head, t.Orientation)
}

// TransitionSpec declares one stochastic link transition.
//
// Callback names a registered update function (see engine.RegisterCallback).
// Empty means no callback.
type TransitionSpec struct {
	Name     string  `json:"name,omitempty"`
	From     Triple  `json:"from"`
	To       Triple  `json:"to"`
	Rate     float64 `json:"rate"`
	Swap     bool    `json:"swap,omitempty"`
	Callback string  `json:"callback,omitempty"`
}

// Grid kinds understood by the model builder.
const (
	GridRaster = "raster"
	GridChain  = "chain"
)

// Boundary modes for reference grids.
const (
	BoundaryOpen   = "open"
	BoundaryClosed = "closed"
	BoundaryNone   = "none"
)

// GridSpec parameterises a reference topology.
type GridSpec struct {
	Kind     string `json:"kind"`
	Rows     int    `json:"rows,omitempty"`
	Cols     int    `json:"cols"`
	Oriented bool   `json:"oriented,omitempty"`
	Boundary string `json:"boundary,omitempty"`
}

// Initial-state patterns.
const (
	PatternFill         = "fill"
	PatternValues       = "values"
	PatternAlternate    = "alternate"
	PatternCheckerboard = "checkerboard"
	PatternStripes      = "stripes"
)

// InitialSpec describes the initial node-state array.
//
// For the two-colour patterns (alternate, checkerboard, stripes) States holds
// the pair of states to alternate between; it defaults to [0, 1].
type InitialSpec struct {
	Pattern string `json:"pattern"`
	Fill    int    `json:"fill,omitempty"`
	Values  []int  `json:"values,omitempty"`
	States  []int  `json:"states,omitempty"`
}

// PropertySpec enables per-node property tracking.
// Values, when present, overrides Fill. Reset is written into a boundary
// node's slot after a property swap.
type PropertySpec struct {
	Fill   float64   `json:"fill,omitempty"`
	Values []float64 `json:"values,omitempty"`
	Reset  *float64  `json:"reset,omitempty"`
}

// ModelSpec is a complete model definition.
type ModelSpec struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	States      []string         `json:"states"`
	Transitions []TransitionSpec `json:"transitions"`
	Grid        GridSpec         `json:"grid"`
	Initial     InitialSpec      `json:"initial"`
	Properties  *PropertySpec    `json:"properties,omitempty"`
	Seed        int64            `json:"seed,omitempty"`
}

// NumStates returns the number of node states.
func (m *ModelSpec) NumStates() int {
	return len(m.States)
}

// StateName returns the label of a node state, or its number when out of
// range.
func (m *ModelSpec) StateName(state int) string {
	if state >= 0 && state < len(m.States) {
		return m.States[state]
	}
	return fmt.Sprintf("state%d", state)
}
