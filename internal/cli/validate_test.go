package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctslab/internal/compiler"
)

func TestValidate_Valid(t *testing.T) {
	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), writeChainModel(t))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All models valid (1)")
	assert.Contains(t, out, "  chain")
}

func TestValidate_ValidJSON(t *testing.T) {
	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), writeChainModel(t))
	require.NoError(t, err)

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	require.Len(t, result.Models, 1)
	assert.Equal(t, "chain", result.Models[0].Name)
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "chain.cue", chainModel)
	writeFile(t, dir, "broken.cue", invalidModel)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ 1 validation error(s)")
	assert.Contains(t, out, "chain: ok")
	assert.Contains(t, out, "[E107] transitions[0].callback")
}

func TestValidate_InvalidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.cue", invalidModel)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Models[0].Errors, 1)
	assert.Equal(t, compiler.ErrUnknownCallback, result.Models[0].Errors[0].Code)
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()
	syntax := writeFile(t, dir, "syntax.cue", "model: m: {states: [")

	tests := []struct {
		name     string
		path     string
		contains string
	}{
		{"missing path", filepath.Join(dir, "nope"), "E002"},
		{"syntax error", syntax, "E003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.contains)
		})
	}
}
