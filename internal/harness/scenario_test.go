package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to a placeholder model file and returns
// the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte("// placeholder model"), 0644))
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
model: model.cue
model_name: chain
seed: 7
draws:
  exp: [1.0, 2.0]
  uniform: [0.25]
initial: [1, 0, 0]
checkpoints:
  - until: 1.5
    node_states: [0, 1, 0]
  - until: 3
assertions:
  - type: state_count
    state: full
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "model.cue"), scenario.Model)
	assert.Equal(t, "chain", scenario.ModelName)
	assert.Equal(t, int64(7), scenario.Seed)
	require.NotNil(t, scenario.Draws)
	assert.Equal(t, []float64{1.0, 2.0}, scenario.Draws.Exp)
	assert.Equal(t, []float64{0.25}, scenario.Draws.Uniform)
	assert.Equal(t, []int{1, 0, 0}, scenario.Initial)
	require.Len(t, scenario.Checkpoints, 2)
	assert.Equal(t, []int{0, 1, 0}, scenario.Checkpoints[0].NodeStates)
	assert.Nil(t, scenario.Checkpoints[1].NodeStates)
	assert.Equal(t, Assertion{Type: AssertStateCount, State: "full", Count: 1}, scenario.Assertions[0])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "has a typo"
model: model.cue
checkpoints:
  - until: 1
assertion:
  - type: deterministic
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nmodel: model.cue\ncheckpoints: [{until: 1}]\nassertions: [{type: deterministic}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nmodel: model.cue\ncheckpoints: [{until: 1}]\nassertions: [{type: deterministic}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing model",
			content: "name: n\ndescription: d\ncheckpoints: [{until: 1}]\nassertions: [{type: deterministic}]\n",
			wantErr: "model is required",
		},
		{
			name:    "model not found",
			content: "name: n\ndescription: d\nmodel: nope.cue\ncheckpoints: [{until: 1}]\nassertions: [{type: deterministic}]\n",
			wantErr: "model file not found",
		},
		{
			name:    "no checkpoints",
			content: "name: n\ndescription: d\nmodel: model.cue\nassertions: [{type: deterministic}]\n",
			wantErr: "checkpoints list is required",
		},
		{
			name:    "checkpoints out of order",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 2}, {until: 2}]\nassertions: [{type: deterministic}]\n",
			wantErr: "checkpoints[1]: until must increase",
		},
		{
			name:    "zero horizon",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 0}]\nassertions: [{type: deterministic}]\n",
			wantErr: "checkpoints[0]: until must increase",
		},
		{
			name:    "uniform out of range",
			content: "name: n\ndescription: d\nmodel: model.cue\ndraws: {uniform: [1.0]}\ncheckpoints: [{until: 1}]\nassertions: [{type: deterministic}]\n",
			wantErr: "draws.uniform[0]",
		},
		{
			name:    "non-positive exp",
			content: "name: n\ndescription: d\nmodel: model.cue\ndraws: {exp: [0]}\ncheckpoints: [{until: 1}]\nassertions: [{type: deterministic}]\n",
			wantErr: "draws.exp[0]",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 1}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "assertion without type",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 1}]\nassertions: [{count: 1}]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 1}]\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "final_state without node_states",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 1}]\nassertions: [{type: final_state}]\n",
			wantErr: "node_states is required for final_state",
		},
		{
			name:    "state_count without state",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 1}]\nassertions: [{type: state_count, count: 1}]\n",
			wantErr: "state is required for state_count",
		},
		{
			name:    "negative min_applied",
			content: "name: n\ndescription: d\nmodel: model.cue\ncheckpoints: [{until: 1}]\nassertions: [{type: min_applied, count: -1}]\n",
			wantErr: "count must be non-negative for min_applied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios_Directory(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"chain_move", "competing", "diffusion"}, names)
}

func TestLoadScenarios_EmptyDirectory(t *testing.T) {
	scenarios, err := LoadScenarios(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}
