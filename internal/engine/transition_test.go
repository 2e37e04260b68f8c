package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctslab/internal/ir"
)

func tr(tail, head, orientation int) ir.Triple {
	return ir.Triple{Tail: tail, Head: head, Orientation: orientation}
}

func TestNewTable_GroupsByFromState(t *testing.T) {
	c, err := NewClassifier(2, 1)
	require.NoError(t, err)

	table, err := NewTable(c, []Transition{
		{From: tr(0, 0, 0), To: tr(1, 0, 0), Rate: 1, Name: "a"},
		{From: tr(1, 0, 0), To: tr(0, 1, 0), Rate: 0.5, Name: "b", SwapProperties: true},
		{From: tr(0, 0, 0), To: tr(0, 1, 0), Rate: 3, Name: "c"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumTransitions())
	assert.Equal(t, 2, table.Count(0))
	assert.Equal(t, 1, table.Count(2))
	assert.Equal(t, 0, table.Count(1))
	assert.Equal(t, 4.0, table.TotalRate(0))
	assert.Equal(t, 0.5, table.TotalRate(2))
	assert.Equal(t, 0.0, table.TotalRate(3))

	cands := table.Candidates(0)
	require.Len(t, cands, 2)
	assert.Equal(t, "a", cands[0].Name)
	assert.Equal(t, 0, cands[0].ID)
	assert.Equal(t, 2, cands[0].To)
	assert.Equal(t, "c", cands[1].Name)
	assert.Equal(t, 2, cands[1].ID)
	assert.Equal(t, 1, cands[1].To)

	b := table.Candidates(2)[0]
	assert.True(t, b.PropSwap)
	assert.Equal(t, "b", table.Transition(1).Name)
	assert.Same(t, c, table.Classifier())
}

func TestNewTable_Errors(t *testing.T) {
	c, err := NewClassifier(2, 2)
	require.NoError(t, err)

	tests := []struct {
		name string
		xn   Transition
		code ConfigErrorCode
	}{
		{"from out of range", Transition{From: tr(2, 0, 0), To: tr(0, 0, 0), Rate: 1}, ErrCodeInvalidState},
		{"to out of range", Transition{From: tr(0, 0, 0), To: tr(0, 0, 2), Rate: 1}, ErrCodeInvalidState},
		{"orientation change", Transition{From: tr(0, 1, 0), To: tr(1, 0, 1), Rate: 1}, ErrCodeInvalidState},
		{"zero rate", Transition{From: tr(0, 1, 0), To: tr(1, 0, 0), Rate: 0}, ErrCodeInvalidRate},
		{"negative rate", Transition{From: tr(0, 1, 0), To: tr(1, 0, 0), Rate: -2}, ErrCodeInvalidRate},
		{"nan rate", Transition{From: tr(0, 1, 0), To: tr(1, 0, 0), Rate: math.NaN()}, ErrCodeInvalidRate},
		{"infinite rate", Transition{From: tr(0, 1, 0), To: tr(1, 0, 0), Rate: math.Inf(1)}, ErrCodeInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.xn.Name = "bad"
			_, err := NewTable(c, []Transition{
				{From: tr(0, 0, 0), To: tr(1, 1, 0), Rate: 1},
				tt.xn,
			})
			require.Error(t, err)
			assert.True(t, HasConfigCode(err, tt.code), "got %v", err)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, 1, ce.Index)
			assert.Equal(t, "bad", ce.Name)
		})
	}
}

func TestChoose_ProportionalToRate(t *testing.T) {
	cands := []Candidate{
		{ID: 0, Rate: 1},
		{ID: 1, Rate: 3},
		{ID: 2, Rate: 2},
	}

	assert.Equal(t, 0, choose(cands, 0).ID)
	assert.Equal(t, 0, choose(cands, 0.99).ID)
	assert.Equal(t, 1, choose(cands, 1.0).ID)
	assert.Equal(t, 1, choose(cands, 3.5).ID)
	assert.Equal(t, 2, choose(cands, 4.0).ID)
	assert.Equal(t, 2, choose(cands, 6.0).ID, "u at the total falls to the last candidate")
}
