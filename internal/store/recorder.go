package store

import (
	"context"
	"fmt"

	"github.com/roach88/ctslab/internal/engine"
)

// Recorder is an engine.Observer that buffers applied transitions and
// persists them, with a snapshot, at each Sample call.
//
// Recorder is not safe for concurrent use; it runs inside the engine loop.
type Recorder struct {
	store   *Store
	runID   string
	seq     int64
	step    int
	pending []TransitionRecord
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder records into run runID, which must already be written.
func NewRecorder(s *Store, runID string) *Recorder {
	return &Recorder{store: s, runID: runID}
}

// EventScheduled is ignored.
func (r *Recorder) EventScheduled(engine.Event) {}

// EventDiscarded is ignored.
func (r *Recorder) EventDiscarded(engine.Event) {}

// EventApplied buffers the transition.
func (r *Recorder) EventApplied(a engine.Applied) {
	r.pending = append(r.pending, TransitionRecord{
		RunID:      r.runID,
		Seq:        r.seq,
		Time:       a.Event.Time,
		Link:       a.Event.Link,
		Tail:       a.Tail,
		Head:       a.Head,
		From:       a.From,
		To:         a.Event.To,
		Transition: a.Event.Transition,
		Name:       a.Name,
	})
	r.seq++
}

// Pending returns the number of buffered transitions.
func (r *Recorder) Pending() int { return len(r.pending) }

// Flush writes buffered transitions.
func (r *Recorder) Flush(ctx context.Context) error {
	if err := r.store.WriteTransitions(ctx, r.pending); err != nil {
		return fmt.Errorf("recorder flush: %w", err)
	}
	r.pending = r.pending[:0]
	return nil
}

// Sample flushes buffered transitions and writes a snapshot of e at its
// current time.
func (r *Recorder) Sample(ctx context.Context, e *engine.Engine) (Snapshot, error) {
	if err := r.Flush(ctx); err != nil {
		return Snapshot{}, err
	}

	stats := e.Stats()
	snap := Snapshot{
		RunID:      r.runID,
		Step:       r.step,
		Time:       e.CurrentTime(),
		NodeStates: e.NodeStates(),
		Applied:    stats.Applied,
		Stale:      stats.Stale,
	}
	if p := e.Properties(); p != nil {
		snap.Properties = p.NodeValues()
	}
	if err := r.store.WriteSnapshot(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("recorder sample: %w", err)
	}
	r.step++
	return snap, nil
}
