package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/roach88/ctslab/internal/compiler"
	"github.com/roach88/ctslab/internal/engine"
	"github.com/roach88/ctslab/internal/store"
	"github.com/roach88/ctslab/internal/testutil"
)

// runID is the fixed run id used inside the scenario's private store.
const runID = "scenario"

// Run executes a scenario and returns the result.
//
// Each run uses a fresh in-memory store for isolation. Checkpoint
// expectations and assertions are reported in Result.Errors; the returned
// error is reserved for scenarios that cannot run at all.
func Run(scenario *Scenario) (*Result, error) {
	model, err := loadModel(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.StateNames = model.Spec.States

	traj, err := execute(context.Background(), scenario, model, result)
	if err != nil {
		return nil, err
	}
	result.Trajectory = *traj

	actx := &AssertionContext{
		Scenario: scenario,
		Model:    model,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func loadModel(scenario *Scenario) (*compiler.Model, error) {
	spec, err := compiler.LoadModel(scenario.Model, scenario.ModelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	model, err := compiler.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	return model, nil
}

// seed returns the seed the scenario runs with.
func seed(scenario *Scenario, model *compiler.Model) int64 {
	switch {
	case scenario.Seed != 0:
		return scenario.Seed
	case model.Spec.Seed != 0:
		return model.Spec.Seed
	default:
		return engine.DefaultSeed
	}
}

// execute runs the scenario once, recording through an in-memory store.
// Checkpoint mismatches are added to result when it is non-nil.
func execute(ctx context.Context, scenario *Scenario, model *compiler.Model, result *Result) (*Trajectory, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	run, err := store.NewRun(runID, model.Spec, seed(scenario, model), model.Topology.NumNodes())
	if err != nil {
		return nil, err
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	rec := store.NewRecorder(st, runID)

	var rng engine.Rand = rand.New(rand.NewSource(run.Seed))
	if d := scenario.Draws; d != nil {
		scripted := testutil.NewScriptedRand(d.Exp, d.Uniform)
		scripted.Fallback = rng
		rng = scripted
	}

	opts := []engine.Option{
		engine.WithRand(rng),
		engine.WithObserver(rec),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if scenario.Initial != nil {
		m := *model
		m.Initial = scenario.Initial
		model = &m
	}
	e, err := model.NewEngine(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	snap, err := rec.Sample(ctx, e)
	if err != nil {
		return nil, err
	}
	traj := &Trajectory{Initial: toSample(0, snap)}

	for i, cp := range scenario.Checkpoints {
		e.Run(cp.Until)
		snap, err := rec.Sample(ctx, e)
		if err != nil {
			return nil, err
		}
		traj.Checkpoints = append(traj.Checkpoints, toSample(cp.Until, snap))

		if result != nil && cp.NodeStates != nil && !slices.Equal(cp.NodeStates, snap.NodeStates) {
			result.AddError(fmt.Sprintf("checkpoint[%d] at %g: node states %v, expected %v",
				i, cp.Until, snap.NodeStates, cp.NodeStates))
		}
	}

	traj.Transitions, err = st.ReadTransitions(ctx, runID, store.TransitionFilter{})
	if err != nil {
		return nil, err
	}
	return traj, nil
}

func toSample(until float64, snap store.Snapshot) Sample {
	return Sample{
		Until:      until,
		Time:       snap.Time,
		NodeStates: snap.NodeStates,
		Properties: snap.Properties,
		Applied:    snap.Applied,
		Stale:      snap.Stale,
	}
}
