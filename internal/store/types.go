package store

import (
	"fmt"

	"github.com/roach88/ctslab/internal/ir"
)

// Run identifies one simulation of a model.
type Run struct {
	ID            string        `json:"id"`
	ModelName     string        `json:"model_name"`
	ModelHash     string        `json:"model_hash"`
	Model         *ir.ModelSpec `json:"model"`
	Seed          int64         `json:"seed"`
	NumNodes      int           `json:"num_nodes"`
	EngineVersion string        `json:"engine_version"`
	ModelVersion  string        `json:"model_version"`
}

// NewRun describes a run of spec with the given id and seed.
func NewRun(id string, spec *ir.ModelSpec, seed int64, numNodes int) (Run, error) {
	hash, err := ir.ModelHash(spec)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	return Run{
		ID:            id,
		ModelName:     spec.Name,
		ModelHash:     hash,
		Model:         spec,
		Seed:          seed,
		NumNodes:      numNodes,
		EngineVersion: ir.EngineVersion,
		ModelVersion:  ir.ModelVersion,
	}, nil
}

// Snapshot is the grid sampled at a run horizon.
type Snapshot struct {
	RunID      string    `json:"run_id"`
	Step       int       `json:"step"`
	Time       float64   `json:"time"`
	NodeStates []int     `json:"node_states"`
	Properties []float64 `json:"properties,omitempty"`
	Applied    int64     `json:"applied"`
	Stale      int64     `json:"stale"`
}

// TransitionRecord is one applied transition.
type TransitionRecord struct {
	RunID      string  `json:"run_id"`
	Seq        int64   `json:"seq"`
	Time       float64 `json:"time"`
	Link       int     `json:"link"`
	Tail       int     `json:"tail"`
	Head       int     `json:"head"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Transition int     `json:"transition"`
	Name       string  `json:"name"`
}
