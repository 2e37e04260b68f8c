package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctslab/internal/store"
)

func TestRun_Text(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, writeChainModel(t), "--until", "100")
	require.NoError(t, err)

	assert.Contains(t, out, "Model: chain (seed 3)")
	assert.Contains(t, out, "Events: 2 applied, 0 stale")
	assert.Contains(t, out, "Property sum: 5")
	assert.NotContains(t, out, "Run ")
}

func TestRun_TextNamesRecordedRun(t *testing.T) {
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: store.NewFixedGenerator("run-7"),
	}
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	out, _, err := execute(newRunCommand(opts), writeChainModel(t), "--until", "100", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Run run-7\nModel: chain (seed 3)\n")
}

func TestRun_JSONSummary(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, writeChainModel(t), "--until", "100", "--interval", "30")
	require.NoError(t, err)

	var summary RunSummary
	resp := decode(t, out, &summary)
	assert.Equal(t, "ok", resp.Status)

	assert.Equal(t, "chain", summary.Model)
	assert.Equal(t, int64(3), summary.Seed)
	assert.Equal(t, 4, summary.Segments)
	assert.Equal(t, []int{0, 0, 1}, summary.NodeStates)
	assert.Equal(t, map[string]int{"empty": 2, "full": 1}, summary.StateCounts)
	assert.Equal(t, int64(2), summary.Stats.Applied)
	assert.Equal(t, 0, summary.Stats.Pending)
	require.NotNil(t, summary.PropertySum)
	assert.Equal(t, 5.0, *summary.PropertySum)
	assert.Less(t, summary.Time, 100.0, "drained queue leaves time at the last event")
	assert.Empty(t, summary.RunID)
}

func TestRun_SeedFlagOverridesModel(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, writeChainModel(t), "--until", "1", "--seed", "77")
	require.NoError(t, err)

	var summary RunSummary
	decode(t, out, &summary)
	assert.Equal(t, int64(77), summary.Seed)
}

func TestRun_Metrics(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, writeChainModel(t), "--until", "100", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, out, `ctslab_transitions_applied_total{transition="move"} 2`)
	assert.Contains(t, out, "ctslab_events_scheduled_total")
}

func TestRun_RecordsToDatabase(t *testing.T) {
	dbPath := recordRun(t, "run-1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "chain", run.ModelName)
	assert.Equal(t, int64(3), run.Seed)
	assert.Equal(t, 3, run.NumNodes)

	snaps, err := st.ReadSnapshots(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, snaps, 5, "initial sample plus one per segment")
	assert.Equal(t, 0.0, snaps[0].Time)
	assert.Equal(t, []int{1, 0, 0}, snaps[0].NodeStates)
	assert.Equal(t, []int{0, 0, 1}, snaps[4].NodeStates)
	assert.Equal(t, []float64{0, 0, 5}, snaps[4].Properties)

	recs, err := st.ReadTransitions(ctx, "run-1", store.TransitionFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 0, recs[0].Link)
	assert.Equal(t, 1, recs[1].Link)
	assert.Equal(t, "move", recs[1].Name)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	invalid := writeFile(t, dir, "broken.cue", invalidModel)

	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{"missing path", []string{filepath.Join(dir, "nope.cue")}, ExitCommandError, "E002"},
		{"invalid model", []string{invalid}, ExitFailure, "E004"},
		{"zero until", []string{writeChainModel(t), "--until", "0"}, ExitCommandError, "--until must be positive"},
		{"negative interval", []string{writeChainModel(t), "--interval", "-1"}, ExitCommandError, "--interval"},
		{"unknown model name", []string{writeChainModel(t), "--model", "sand"}, ExitCommandError, `"sand" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(NewRunCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestHorizons(t *testing.T) {
	assert.Equal(t, []float64{10}, horizons(10, 0))
	assert.Equal(t, []float64{10}, horizons(10, 10))
	assert.Equal(t, []float64{10}, horizons(10, 20))
	assert.Equal(t, []float64{2.5, 5, 7.5, 10}, horizons(10, 2.5))
	assert.Equal(t, []float64{3, 6, 9, 10}, horizons(10, 3))
}

func TestStateCounts(t *testing.T) {
	got := stateCounts([]string{"a", "b", "c"}, []int{0, 2, 2})
	assert.Equal(t, map[string]int{"a": 1, "b": 0, "c": 2}, got)
}
