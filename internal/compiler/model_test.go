package compiler

import (
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctslab/internal/ir"
)

func compileOne(t *testing.T, src string) (*ir.ModelSpec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileModel(v.LookupPath(cue.ParsePath("model.m")))
}

func TestCompileModelBasic(t *testing.T) {
	spec, err := compileOne(t, `
		model: m: {
			description: "two-state chain"
			states: ["empty", "full"]
			grid: {kind: "chain", cols: 3}
			transitions: [{
				name: "move"
				from: [1, 0]
				to: [0, 1]
				rate: 0.5
			}]
			initial: {pattern: "values", values: [1, 0, 0]}
			seed: 9
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, "m", spec.Name)
	assert.Equal(t, "two-state chain", spec.Description)
	assert.Equal(t, []string{"empty", "full"}, spec.States)
	require.Len(t, spec.Transitions, 1)
	assert.Equal(t, ir.TransitionSpec{
		Name: "move",
		From: ir.Triple{Tail: 1, Head: 0},
		To:   ir.Triple{Tail: 0, Head: 1},
		Rate: 0.5,
	}, spec.Transitions[0])
	assert.Equal(t, ir.GridSpec{Kind: "chain", Rows: 1, Cols: 3, Boundary: "open"}, spec.Grid)
	assert.Equal(t, ir.InitialSpec{Pattern: "values", Values: []int{1, 0, 0}}, spec.Initial)
	assert.Nil(t, spec.Properties)
	assert.Equal(t, int64(9), spec.Seed)
}

func TestCompileModelDefaults(t *testing.T) {
	spec, err := compileOne(t, `
		model: m: {
			states: ["a"]
			grid: {cols: 2}
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, ir.GridRaster, spec.Grid.Kind)
	assert.Equal(t, 1, spec.Grid.Rows)
	assert.Equal(t, ir.BoundaryOpen, spec.Grid.Boundary)
	assert.False(t, spec.Grid.Oriented)
	assert.Equal(t, ir.PatternFill, spec.Initial.Pattern)
	assert.Equal(t, 0, spec.Initial.Fill)
	assert.Empty(t, spec.Transitions)
	assert.Equal(t, int64(0), spec.Seed)
}

func TestCompileModelStateNames(t *testing.T) {
	spec, err := compileOne(t, `
		model: m: {
			states: ["fluid", "particle", "rock"]
			grid: {rows: 3, cols: 3, oriented: true}
			transitions: [{
				from: ["fluid", "particle", 1]
				to: ["particle", "fluid", 1]
				rate: 2
				swap: true
				callback: "age"
			}]
			initial: {pattern: "checkerboard", states: ["rock", 0]}
			properties: {fill: 1.5, reset: 0}
		}
	`)
	require.NoError(t, err)

	xn := spec.Transitions[0]
	assert.Equal(t, ir.Triple{Tail: 0, Head: 1, Orientation: 1}, xn.From)
	assert.Equal(t, ir.Triple{Tail: 1, Head: 0, Orientation: 1}, xn.To)
	assert.Equal(t, 2.0, xn.Rate)
	assert.True(t, xn.Swap)
	assert.Equal(t, "age", xn.Callback)

	assert.Equal(t, []int{2, 0}, spec.Initial.States)

	require.NotNil(t, spec.Properties)
	assert.Equal(t, 1.5, spec.Properties.Fill)
	require.NotNil(t, spec.Properties.Reset)
	assert.Equal(t, 0.0, *spec.Properties.Reset)
}

func TestCompileModelUnknownStateName(t *testing.T) {
	_, err := compileOne(t, `
		model: m: {
			states: ["a", "b"]
			grid: {cols: 2}
			transitions: [{from: ["a", "c"], to: ["b", "b"], rate: 1}]
		}
	`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "transitions[0].from[1]", ce.Field)
	assert.Contains(t, ce.Message, `unknown state "c"`)
}

func TestCompileModelSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `states: ["a"], grid: {cols: 2}, colour: "red"`},
		{"missing states", `grid: {cols: 2}`},
		{"empty states", `states: [], grid: {cols: 2}`},
		{"zero rate", `states: ["a"], grid: {cols: 2}, transitions: [{from: [0, 0], to: [0, 0], rate: 0}]`},
		{"bad pattern", `states: ["a"], grid: {cols: 2}, initial: {pattern: "spiral"}`},
		{"bad boundary", `states: ["a"], grid: {cols: 2, boundary: "wrap"}`},
		{"triple too long", `states: ["a"], grid: {cols: 2}, transitions: [{from: [0, 0, 0, 0], to: [0, 0], rate: 1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileOne(t, "model: m: {"+tt.body+"}")
			require.Error(t, err)
			var ce *CompileError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestCompileString_SortsByName(t *testing.T) {
	models, err := CompileString(`
		model: zeta: {states: ["a"], grid: {cols: 2}}
		model: alpha: {states: ["a"], grid: {cols: 2}}
	`)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "alpha", models[0].Name)
	assert.Equal(t, "zeta", models[1].Name)
}

func TestCompileString_NoModels(t *testing.T) {
	_, err := CompileString(`other: 1`)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "model", ce.Field)
}

func TestLoadModels_File(t *testing.T) {
	models, err := LoadModels(filepath.Join("testdata", "single.cue"))
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, "pair", m.Name)
	assert.Equal(t, ir.Triple{Tail: 0, Head: 0}, m.Transitions[0].From)
	assert.Equal(t, ir.Triple{Tail: 1, Head: 1}, m.Transitions[0].To)
}

func TestLoadModels_Directory(t *testing.T) {
	models, err := LoadModels(filepath.Join("testdata", "models"))
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "diffusion", models[0].Name)
	assert.Equal(t, "sand", models[1].Name)

	sand := models[1]
	assert.Equal(t, int64(42), sand.Seed)
	assert.Equal(t, ir.BoundaryClosed, sand.Grid.Boundary)
	assert.True(t, sand.Grid.Oriented)
	assert.Equal(t, []int{1, 0}, sand.Initial.States)
}

func TestLoadModel_Select(t *testing.T) {
	dir := filepath.Join("testdata", "models")

	m, err := LoadModel(dir, "diffusion")
	require.NoError(t, err)
	assert.Equal(t, "diffusion", m.Name)

	_, err = LoadModel(dir, "")
	assert.ErrorContains(t, err, "pick one by name")

	_, err = LoadModel(dir, "nope")
	assert.ErrorContains(t, err, `"nope" not found`)

	single, err := LoadModel(filepath.Join("testdata", "single.cue"), "")
	require.NoError(t, err)
	assert.Equal(t, "pair", single.Name)
}

func TestLoadModels_MissingPath(t *testing.T) {
	_, err := LoadModels(filepath.Join("testdata", "does-not-exist.cue"))
	assert.Error(t, err)
}
