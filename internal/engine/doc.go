// Package engine implements the continuous-time stochastic cellular
// automaton (CTS) engine.
//
// The engine evolves per-node states over a fixed link topology. Each link
// carries a link state derived from its endpoint node states and its
// orientation. Transitions are declared per link state with a rate; the
// engine schedules one event per link, drawing the waiting time from an
// exponential distribution with the summed rate of all competing
// transitions, and picks the winner in proportion to its rate.
//
// ARCHITECTURE:
//
// Single-Threaded Event Loop:
// Run pops events from a min-heap keyed by (simulated time, sequence number)
// and applies them one at a time. There are no goroutines and no locks. Given
// the same Rand stream the trajectory is reproducible.
//
// Event Processing Flow:
//  1. Peek the earliest event; stop at the run horizon
//  2. Pop it and compare its time with the link's next-update time
//  3. Stale events (superseded by a reschedule) are discarded and counted
//  4. Live events write the new node states, swap property slots, invoke
//     the update callback, and reschedule every link whose state changed
//
// Lazy Invalidation:
// Superseded events stay in the heap. The per-link next-update array is the
// single source of truth; the heap is a time-ordered hint stream.
//
// INVARIANTS:
//   - At most one live event per link
//   - CurrentTime never decreases and never passes the Run horizon
//   - Every link's stored link state matches its endpoints' node states
package engine
