package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/ctslab/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown id.
var ErrRunNotFound = errors.New("store: run not found")

const runColumns = `id, model_name, model_hash, model_json, seed, num_nodes, engine_version, model_version`

// ReadRun returns a run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by id. With UUIDv7 ids this is creation
// order.
//
// Returns an empty slice (not nil) when there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSnapshots returns a run's snapshots ordered by step.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadSnapshots(ctx context.Context, runID string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, step, sim_time, node_states, properties, applied, stale
		FROM snapshots
		WHERE run_id = ?
		ORDER BY step ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var states string
		var props sql.NullString
		if err := rows.Scan(&snap.RunID, &snap.Step, &snap.Time, &states, &props, &snap.Applied, &snap.Stale); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(states), &snap.NodeStates); err != nil {
			return nil, fmt.Errorf("unmarshal node states: %w", err)
		}
		if props.Valid {
			if err := json.Unmarshal([]byte(props.String), &snap.Properties); err != nil {
				return nil, fmt.Errorf("unmarshal properties: %w", err)
			}
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// TransitionFilter narrows ReadTransitions. Zero values match everything.
type TransitionFilter struct {
	// Link restricts results to one link when non-nil.
	Link *int

	// Name restricts results to one transition name when non-empty.
	Name string

	// Limit caps the number of records when positive.
	Limit int
}

// ReadTransitions returns a run's applied transitions ordered by seq.
//
// Returns an empty slice (not nil) if none match.
func (s *Store) ReadTransitions(ctx context.Context, runID string, f TransitionFilter) ([]TransitionRecord, error) {
	query := `
		SELECT run_id, seq, sim_time, link, tail, head, from_state, to_state, transition, name
		FROM transitions
		WHERE run_id = ?`
	args := []any{runID}
	if f.Link != nil {
		query += ` AND link = ?`
		args = append(args, *f.Link)
	}
	if f.Name != "" {
		query += ` AND name = ?`
		args = append(args, f.Name)
	}
	query += ` ORDER BY seq ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	recs := []TransitionRecord{}
	for rows.Next() {
		var r TransitionRecord
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Time, &r.Link, &r.Tail, &r.Head, &r.From, &r.To, &r.Transition, &r.Name); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var modelJSON string
	if err := row.Scan(
		&run.ID, &run.ModelName, &run.ModelHash, &modelJSON,
		&run.Seed, &run.NumNodes, &run.EngineVersion, &run.ModelVersion,
	); err != nil {
		return Run{}, err
	}
	run.Model = &ir.ModelSpec{}
	if err := json.Unmarshal([]byte(modelJSON), run.Model); err != nil {
		return Run{}, fmt.Errorf("unmarshal model: %w", err)
	}
	return run, nil
}
