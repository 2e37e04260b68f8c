package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctslab/internal/store"
)

// chainModel moves a single particle right along a 3-node chain. The run
// always ends at [0, 0, 1] after exactly two transitions.
const chainModel = `package models

model: chain: {
	description: "one particle, three nodes"
	states: ["empty", "full"]
	grid: {kind: "chain", cols: 3}
	transitions: [{name: "move", from: [1, 0], to: [0, 1], rate: 1, swap: true}]
	initial: {pattern: "values", values: [1, 0, 0]}
	properties: {values: [5, 0, 0]}
	seed: 3
}
`

const invalidModel = `package models

model: broken: {
	states: ["empty", "full"]
	grid: {kind: "chain", cols: 3}
	transitions: [{name: "move", from: [1, 0], to: [0, 1], rate: 1, callback: "erode"}]
}
`

type rawResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeChainModel(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "chain.cue", chainModel)
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decode(t *testing.T, out string, data any) rawResponse {
	t.Helper()
	var resp rawResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// recordRun runs the chain model into a fresh database and returns its path.
func recordRun(t *testing.T, runID string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: store.NewFixedGenerator(runID),
	}
	_, _, err := execute(newRunCommand(opts), writeChainModel(t), "--until", "100", "--interval", "25", "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}
