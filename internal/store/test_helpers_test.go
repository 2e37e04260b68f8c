package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ctslab/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// chainSpec is a three-node chain with one rightward move.
func chainSpec() *ir.ModelSpec {
	return &ir.ModelSpec{
		Name:   "chain",
		States: []string{"empty", "full"},
		Transitions: []ir.TransitionSpec{
			{Name: "move", From: ir.Triple{Tail: 1}, To: ir.Triple{Head: 1}, Rate: 1},
		},
		Grid:    ir.GridSpec{Kind: ir.GridChain, Rows: 1, Cols: 3},
		Initial: ir.InitialSpec{Pattern: ir.PatternValues, Values: []int{1, 0, 0}},
	}
}

// createTestRun writes a chain run with the given id.
func createTestRun(t *testing.T, s *Store, id string) Run {
	t.Helper()
	run, err := NewRun(id, chainSpec(), 1, 3)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	if err := s.WriteRun(testCtx(t), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}
