package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsAdjacency(t *testing.T) {
	topo, err := New(Spec{
		NumNodes:        3,
		Tails:           []int{0, 1, 0},
		Heads:           []int{1, 2, 2},
		Orientations:    []int{0, 1, 2},
		NumOrientations: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, topo.NumNodes())
	assert.Equal(t, 3, topo.NumLinks())
	assert.Equal(t, []int{0, 2}, topo.LinksAtNode(0))
	assert.Equal(t, []int{0, 1}, topo.LinksAtNode(1))
	assert.Equal(t, []int{1, 2}, topo.LinksAtNode(2))

	tail, head := topo.LinkNodes(1)
	assert.Equal(t, 1, tail)
	assert.Equal(t, 2, head)
	assert.Equal(t, 2, topo.Orientation(2))
	assert.True(t, topo.IsActiveLink(0), "nil active slice means all active")
	assert.False(t, topo.IsBoundaryNode(0), "nil boundary slice means no boundary")
}

func TestNew_CopiesInput(t *testing.T) {
	tails := []int{0}
	topo, err := New(Spec{NumNodes: 2, Tails: tails, Heads: []int{1}, NumOrientations: 1})
	require.NoError(t, err)

	tails[0] = 1
	tail, _ := topo.LinkNodes(0)
	assert.Equal(t, 0, tail)
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"no nodes", Spec{NumNodes: 0, NumOrientations: 1}},
		{"no orientations", Spec{NumNodes: 2, Tails: []int{0}, Heads: []int{1}}},
		{"length mismatch", Spec{NumNodes: 2, Tails: []int{0}, Heads: nil, NumOrientations: 1}},
		{"endpoint out of range", Spec{NumNodes: 2, Tails: []int{0}, Heads: []int{2}, NumOrientations: 1}},
		{"self loop", Spec{NumNodes: 2, Tails: []int{1}, Heads: []int{1}, NumOrientations: 1}},
		{"bad orientation", Spec{NumNodes: 2, Tails: []int{0}, Heads: []int{1}, Orientations: []int{1}, NumOrientations: 1}},
		{"active mismatch", Spec{NumNodes: 2, Tails: []int{0}, Heads: []int{1}, NumOrientations: 1, Active: []bool{}}},
		{"boundary mismatch", Spec{NumNodes: 2, Tails: []int{0}, Heads: []int{1}, NumOrientations: 1, Boundary: []bool{true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec)
			assert.Error(t, err)
		})
	}
}
