package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/ctslab/internal/engine"
	"github.com/roach88/ctslab/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Model structure (E100-E109)
	ErrNoStates        = "E101" // at least one state required
	ErrDuplicateName   = "E102" // duplicate state or transition name
	ErrStateOutOfRange = "E103" // triple or initial state outside [0, states)
	ErrBadOrientation  = "E104" // orientation outside the grid's orientations
	ErrOrientationFlip = "E105" // transition changes link orientation
	ErrBadRate         = "E106" // rate not positive and finite
	ErrUnknownCallback = "E107" // callback not registered

	// Grid and initial conditions (E110-E119)
	ErrBadGrid        = "E110" // unknown kind or bad shape
	ErrBadPattern     = "E111" // unknown initial pattern or malformed values
	ErrBadProperties  = "E112" // property values do not match the grid
	ErrEmptyStateName = "E113" // state label is blank
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled model for consistency the engine would reject
// at construction, plus grid and initial-condition errors.
// Returns all errors found (does not fail-fast).
func Validate(spec *ir.ModelSpec) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	n := spec.NumStates()
	if n == 0 {
		add(ErrNoStates, "states", "at least one state is required")
	}
	seen := make(map[string]bool)
	for i, name := range spec.States {
		field := fmt.Sprintf("states[%d]", i)
		if strings.TrimSpace(name) == "" {
			add(ErrEmptyStateName, field, "state name must be non-empty")
			continue
		}
		if seen[name] {
			add(ErrDuplicateName, field, "duplicate state name: %q", name)
		}
		seen[name] = true
	}

	gridErrs, nodes, numOrient := validateGrid(spec.Grid)
	errs = append(errs, gridErrs...)

	inState := func(s int) bool { return s >= 0 && s < n }

	xnNames := make(map[string]bool)
	for i, xn := range spec.Transitions {
		field := fmt.Sprintf("transitions[%d]", i)
		if xn.Name != "" {
			if xnNames[xn.Name] {
				add(ErrDuplicateName, field+".name", "duplicate transition name: %q", xn.Name)
			}
			xnNames[xn.Name] = true
		}

		for _, side := range []struct {
			label string
			t     ir.Triple
		}{{"from", xn.From}, {"to", xn.To}} {
			if !inState(side.t.Tail) || !inState(side.t.Head) {
				add(ErrStateOutOfRange, field+"."+side.label, "triple %s uses a state outside [0,%d)", side.t, n)
			}
			if numOrient > 0 && (side.t.Orientation < 0 || side.t.Orientation >= numOrient) {
				add(ErrBadOrientation, field+"."+side.label, "orientation %d outside [0,%d) for this grid", side.t.Orientation, numOrient)
			}
		}
		if xn.From.Orientation != xn.To.Orientation {
			add(ErrOrientationFlip, field, "transition %s->%s changes link orientation", xn.From, xn.To)
		}
		if !(xn.Rate > 0) || math.IsInf(xn.Rate, 0) {
			add(ErrBadRate, field+".rate", "rate must be positive and finite, got %v", xn.Rate)
		}
		if xn.Callback != "" {
			if _, ok := engine.LookupCallback(xn.Callback); !ok {
				add(ErrUnknownCallback, field+".callback", "unknown callback %q (registered: %s)",
					xn.Callback, strings.Join(engine.CallbackNames(), ", "))
			}
		}
	}

	errs = append(errs, validateInitial(spec.Initial, nodes, inState)...)

	if p := spec.Properties; p != nil && p.Values != nil && nodes > 0 && len(p.Values) != nodes {
		add(ErrBadProperties, "properties.values", "%d values for %d nodes", len(p.Values), nodes)
	}

	return errs
}

// validateGrid returns the grid's node and orientation counts, or zero when
// the grid is invalid.
func validateGrid(g ir.GridSpec) ([]ValidationError, int, int) {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    ErrBadGrid,
		})
	}

	switch g.Kind {
	case ir.GridRaster:
		if g.Rows < 1 || g.Cols < 1 {
			add("grid", "raster needs positive shape, got %dx%d", g.Rows, g.Cols)
		}
		switch g.Boundary {
		case "", ir.BoundaryOpen, ir.BoundaryClosed, ir.BoundaryNone:
		default:
			add("grid.boundary", "unknown boundary mode %q", g.Boundary)
		}
	case ir.GridChain:
		if g.Cols < 2 {
			add("grid.cols", "chain needs at least 2 nodes, got %d", g.Cols)
		}
		if g.Oriented {
			add("grid.oriented", "chains have a single orientation")
		}
	default:
		add("grid.kind", "unknown grid kind %q", g.Kind)
	}
	if len(errs) > 0 {
		return errs, 0, 0
	}
	return nil, numNodes(g), numOrientations(g)
}

func validateInitial(initial ir.InitialSpec, nodes int, inState func(int) bool) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    ErrBadPattern,
		})
	}
	checkState := func(field string, s int) {
		if !inState(s) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("state %d out of range", s),
				Code:    ErrStateOutOfRange,
			})
		}
	}

	switch initial.Pattern {
	case "", ir.PatternFill:
		checkState("initial.fill", initial.Fill)
	case ir.PatternValues:
		if nodes > 0 && len(initial.Values) != nodes {
			add("initial.values", "%d values for %d nodes", len(initial.Values), nodes)
		}
		for i, s := range initial.Values {
			checkState(fmt.Sprintf("initial.values[%d]", i), s)
		}
	case ir.PatternAlternate, ir.PatternCheckerboard, ir.PatternStripes:
		if initial.States != nil && len(initial.States) != 2 {
			add("initial.states", "two-colour pattern needs 2 states, got %d", len(initial.States))
		}
		for i, s := range twoColours(initial) {
			checkState(fmt.Sprintf("initial.states[%d]", i), s)
		}
	default:
		add("initial.pattern", "unknown pattern %q", initial.Pattern)
	}
	return errs
}
