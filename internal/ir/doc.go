// Package ir holds the declarative description of a CTS model: node-state
// names, link transitions, grid parameters, and initial conditions.
//
// The types here are plain data. They are produced by the compiler package
// from CUE model files and consumed by the CLI and harness, which turn them
// into engine inputs. ir imports nothing internal.
//
// Key design constraints:
//   - A Triple is always (tail state, head state, orientation), ordered by the
//     link's fixed tail->head direction
//   - All JSON tags use snake_case
//   - Simulated time is a float64; sequence numbers are int64
package ir
