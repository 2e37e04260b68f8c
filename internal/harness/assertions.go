package harness

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/ctslab/internal/compiler"
	"github.com/roach88/ctslab/internal/ir"
)

// defaultTolerance bounds property-sum drift when an assertion gives none.
const defaultTolerance = 1e-9

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Final    Sample // Final sample for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  Final: t=%g states=%v applied=%d\n",
		e.Final.Time, e.Final.NodeStates, e.Final.Applied)

	return buf.String()
}

// assertFinalState checks the node states after the last checkpoint.
func assertFinalState(traj *Trajectory, a Assertion) error {
	final := traj.Final()
	if slices.Equal(final.NodeStates, a.NodeStates) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("node states %v", a.NodeStates),
		Actual:   fmt.Sprintf("node states %v", final.NodeStates),
		Final:    final,
	}
}

// assertStateCount checks how many nodes end in the named state.
func assertStateCount(traj *Trajectory, names []string, a Assertion) error {
	state := slices.Index(names, a.State)
	if state < 0 {
		return fmt.Errorf("state_count: unknown state %q (have %v)", a.State, names)
	}

	final := traj.Final()
	count := 0
	for _, s := range final.NodeStates {
		if s == state {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertStateCount,
		Expected: fmt.Sprintf("%d nodes in %q", a.Count, a.State),
		Actual:   fmt.Sprintf("%d nodes", count),
		Final:    final,
	}
}

// assertTimeBounded checks that time never runs past a horizon or MaxTime
// and never goes backwards.
func assertTimeBounded(traj *Trajectory, a Assertion) error {
	prev := traj.Initial.Time
	for i, cp := range traj.Checkpoints {
		limit := cp.Until
		if a.MaxTime > 0 && a.MaxTime < limit {
			limit = a.MaxTime
		}
		if cp.Time > limit || cp.Time < prev {
			return &AssertionError{
				Type:     AssertTimeBounded,
				Expected: fmt.Sprintf("checkpoint[%d] time in [%g, %g]", i, prev, limit),
				Actual:   fmt.Sprintf("time %g", cp.Time),
				Final:    traj.Final(),
			}
		}
		prev = cp.Time
	}
	for _, rec := range traj.Transitions {
		if a.MaxTime > 0 && rec.Time > a.MaxTime {
			return &AssertionError{
				Type:     AssertTimeBounded,
				Expected: fmt.Sprintf("transitions at or before %g", a.MaxTime),
				Actual:   fmt.Sprintf("transition %d at %g", rec.Seq, rec.Time),
				Final:    traj.Final(),
			}
		}
	}
	return nil
}

// assertPropertyConserved checks the property sum at every sample against
// the initial sum.
func assertPropertyConserved(traj *Trajectory, a Assertion) error {
	if traj.Initial.Properties == nil {
		return fmt.Errorf("property_conserved: model has no properties")
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}

	want := sum(traj.Initial.Properties)
	for i, cp := range traj.Checkpoints {
		if got := sum(cp.Properties); math.Abs(got-want) > tol {
			return &AssertionError{
				Type:     AssertPropertyConserved,
				Expected: fmt.Sprintf("property sum %g ± %g", want, tol),
				Actual:   fmt.Sprintf("sum %g at checkpoint[%d]", got, i),
				Final:    traj.Final(),
			}
		}
	}
	return nil
}

// assertMinApplied checks the total number of applied transitions.
func assertMinApplied(traj *Trajectory, a Assertion) error {
	final := traj.Final()
	if final.Applied >= int64(a.Count) {
		return nil
	}
	return &AssertionError{
		Type:     AssertMinApplied,
		Expected: fmt.Sprintf("at least %d applied transitions", a.Count),
		Actual:   fmt.Sprintf("%d", final.Applied),
		Final:    final,
	}
}

// assertDeterministic reruns the scenario and compares canonical
// trajectories byte for byte.
func assertDeterministic(traj *Trajectory, actx *AssertionContext) error {
	if actx == nil || actx.Scenario == nil || actx.Model == nil {
		return fmt.Errorf("deterministic: requires scenario context")
	}

	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	again, err := execute(ctx, actx.Scenario, actx.Model, nil)
	if err != nil {
		return fmt.Errorf("deterministic: rerun failed: %w", err)
	}

	first, err := ir.MarshalCanonical(traj.toCanonicalMap(actx.Scenario.Name))
	if err != nil {
		return fmt.Errorf("deterministic: %w", err)
	}
	second, err := ir.MarshalCanonical(again.toCanonicalMap(actx.Scenario.Name))
	if err != nil {
		return fmt.Errorf("deterministic: %w", err)
	}
	if bytes.Equal(first, second) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDeterministic,
		Expected: fmt.Sprintf("identical rerun (%d transitions)", len(traj.Transitions)),
		Actual:   fmt.Sprintf("rerun diverged (%d transitions)", len(again.Transitions)),
		Final:    traj.Final(),
	}
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// AssertionContext provides what assertions need beyond the trajectory.
type AssertionContext struct {
	Scenario *Scenario
	Model    *compiler.Model
	Ctx      context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	traj := &result.Trajectory

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalState:
			err = assertFinalState(traj, assertion)
		case AssertStateCount:
			err = assertStateCount(traj, result.StateNames, assertion)
		case AssertTimeBounded:
			err = assertTimeBounded(traj, assertion)
		case AssertPropertyConserved:
			err = assertPropertyConserved(traj, assertion)
		case AssertMinApplied:
			err = assertMinApplied(traj, assertion)
		case AssertDeterministic:
			err = assertDeterministic(traj, actx)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
