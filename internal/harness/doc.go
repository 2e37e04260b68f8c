// Package harness runs model scenarios for conformance testing.
//
// A scenario is a YAML file naming a model, a seed or a scripted stream of
// random draws, and a list of checkpoints. The harness drives the engine to
// each checkpoint, records the trajectory through an in-memory store, and
// evaluates the scenario's assertions against it.
//
// Scripted draws make event times hand-computable, so trajectories can be
// pinned with golden files:
//
//	draws:
//	  exp: [1.0, 2.0]   # first two ExpFloat64 results
//	  uniform: [0.5]    # first Float64 result
//
// Draws beyond the script fall through to the scenario's seeded stream.
//
// Golden files live in testdata/golden and are regenerated with
//
//	go test ./internal/harness -update
package harness
