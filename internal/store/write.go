package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/ctslab/internal/ir"
)

// WriteRun inserts a run record. Uses ON CONFLICT(id) DO NOTHING, so
// rewriting the same id is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	modelJSON, err := json.Marshal(run.Model)
	if err != nil {
		return fmt.Errorf("write run: marshal model: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, model_name, model_hash, model_json, seed, num_nodes, engine_version, model_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ModelName,
		run.ModelHash,
		string(modelJSON),
		run.Seed,
		run.NumNodes,
		run.EngineVersion,
		run.ModelVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteSnapshot inserts a snapshot. The run must exist (foreign key).
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) error {
	states, err := ir.MarshalCanonical(snap.NodeStates)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	var props any
	if snap.Properties != nil {
		data, err := ir.MarshalCanonical(snap.Properties)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		props = string(data)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(run_id, step, sim_time, node_states, properties, applied, stale)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		snap.RunID,
		snap.Step,
		snap.Time,
		string(states),
		props,
		snap.Applied,
		snap.Stale,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// WriteTransitions inserts a batch of transition records in one
// transaction. Either all records are written or none.
func (s *Store) WriteTransitions(ctx context.Context, recs []TransitionRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write transitions: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transitions
		(run_id, seq, sim_time, link, tail, head, from_state, to_state, transition, name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write transitions: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Seq, r.Time, r.Link, r.Tail, r.Head, r.From, r.To, r.Transition, r.Name,
		); err != nil {
			return fmt.Errorf("write transitions: seq %d: %w", r.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write transitions: commit: %w", err)
	}
	return nil
}
