package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctslab/internal/store"
)

func TestTrace_ListRuns(t *testing.T) {
	dbPath := recordRun(t, "run-1")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1  chain  seed=3  nodes=3")

	out, _, err = execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)
	var runs []RunListing
	decode(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.NotEmpty(t, runs[0].ModelHash)
}

func TestTrace_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTrace_Run(t *testing.T) {
	dbPath := recordRun(t, "run-1")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text", Verbose: true}), "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for Run: run-1")
	assert.Contains(t, out, "=== Snapshots ===")
	assert.Contains(t, out, "[0] t=0 applied=0 stale=0 empty=2 full=1")
	assert.Contains(t, out, "link 0 (0->1) move: 2 -> 1")
	assert.Contains(t, out, "Transitions: 2")

	out, _, err = execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	var result TraceResult
	decode(t, out, &result)
	assert.Len(t, result.Snapshots, 5)
	assert.Len(t, result.Transitions, 2)
	assert.Equal(t, map[string]int{"move": 2}, result.Stats.ByName)
	assert.Equal(t, result.Snapshots[4].Time, result.Stats.FinalTime)
}

func TestTrace_Filters(t *testing.T) {
	dbPath := recordRun(t, "run-1")

	tests := []struct {
		name  string
		args  []string
		links []int
	}{
		{"link", []string{"--link", "1"}, []int{1}},
		{"name", []string{"--name", "move"}, []int{0, 1}},
		{"unknown name", []string{"--name", "fall"}, []int{}},
		{"limit", []string{"--limit", "1"}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath, "--run", "run-1"}, tt.args...)
			out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err)
			var result TraceResult
			decode(t, out, &result)

			links := []int{}
			for _, r := range result.Transitions {
				links = append(links, r.Link)
			}
			assert.Equal(t, tt.links, links)
		})
	}
}

func TestTrace_Errors(t *testing.T) {
	dbPath := recordRun(t, "run-1")

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"no database", nil, "no database"},
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "nope.db")}, "E002"},
		{"unknown run", []string{"--db", dbPath, "--run", "run-9"}, "E007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.contains)
		})
	}
}
