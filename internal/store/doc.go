// Package store provides SQLite-backed durable storage for CTS trajectories.
//
// The store holds three append-only tables:
//   - runs: one row per simulation, with the model definition and its hash
//   - snapshots: node states and properties sampled at run horizons
//   - transitions: every applied transition, in application order
//
// # Ordering
//
// Snapshots are keyed by a per-run step counter and transitions by a per-run
// sequence number. All queries order by these logical counters, never by
// wall time, so two runs of the same model and seed read back identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Node-state and property arrays are stored as canonical JSON produced by
// ir.MarshalCanonical.
package store
