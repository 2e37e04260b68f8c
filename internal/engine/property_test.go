package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperties_IdentityIndex(t *testing.T) {
	p, err := newProperties(3, []float64{1, 2, 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, p.Index())
	assert.Equal(t, 2.0, p.Value(1))
	assert.Equal(t, 6.0, p.Sum())
}

func TestProperties_SwapMovesSlotsNotData(t *testing.T) {
	p, err := newProperties(3, []float64{1, 2, 3}, nil)
	require.NoError(t, err)

	p.swap(0, 2)

	assert.Equal(t, []int{2, 1, 0}, p.Index())
	assert.Equal(t, []float64{1, 2, 3}, p.Data())
	assert.Equal(t, []float64{3, 2, 1}, p.NodeValues())

	p.SetValue(0, 9)
	assert.Equal(t, []float64{1, 2, 9}, p.Data(), "writes go through the node's slot")

	p.AddValue(2, 0.5)
	assert.Equal(t, 1.5, p.Value(2))
}

func TestProperties_CopiesInputs(t *testing.T) {
	data := []float64{5, 6}
	index := []int{1, 0}
	p, err := newProperties(2, data, index)
	require.NoError(t, err)

	data[0] = 100
	index[0] = 0

	assert.Equal(t, 1, p.Slot(0))
	assert.Equal(t, 6.0, p.Value(0))
	assert.Equal(t, 5.0, p.Value(1))
}

func TestProperties_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		nodes int
		data  []float64
		index []int
	}{
		{"identity length mismatch", 3, []float64{1, 2}, nil},
		{"index length mismatch", 3, []float64{1, 2, 3}, []int{0, 1}},
		{"slot out of range", 2, []float64{1, 2}, []int{0, 2}},
		{"negative slot", 2, []float64{1, 2}, []int{-1, 0}},
		{"shared slot", 2, []float64{1, 2}, []int{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newProperties(tt.nodes, tt.data, tt.index)
			assert.True(t, HasConfigCode(err, ErrCodeInvalidProperty), "got %v", err)
		})
	}
}
