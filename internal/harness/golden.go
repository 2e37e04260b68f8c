package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ctslab/internal/ir"
)

// RunWithGolden executes a scenario and compares its trajectory against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Test failure (via
// goldie) occurs if the trajectory doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trajectory against the golden
// file for name without re-running.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := CanonicalTrajectory(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}

// CanonicalTrajectory renders a result's trajectory as canonical JSON.
func CanonicalTrajectory(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(result.Trajectory.toCanonicalMap(name))
}
