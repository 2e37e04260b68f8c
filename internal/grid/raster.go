package grid

import (
	"fmt"

	"github.com/roach88/ctslab/internal/ir"
)

// Raster orientation codes when RasterOptions.Oriented is set.
const (
	Horizontal = 0
	Vertical   = 1
)

// RasterOptions configures NewRaster.
//
// Boundary is one of ir.BoundaryOpen (default), ir.BoundaryClosed, or
// ir.BoundaryNone:
//   - open: perimeter nodes are boundary nodes; a link is active when at
//     least one endpoint is a core node
//   - closed: perimeter nodes are boundary nodes; a link is active only when
//     both endpoints are core nodes
//   - none: every node is core and every link is active
type RasterOptions struct {
	Oriented bool
	Boundary string
}

// NewRaster builds a rows x cols raster. Node id = row*cols + col.
//
// Links are numbered row by row: the cols-1 horizontal links of a row (west
// to east), then the cols vertical links joining it to the next row (south
// to north). Every link points from lower to higher node id.
func NewRaster(rows, cols int, opts RasterOptions) (*Topology, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid: raster needs positive shape, got %dx%d", rows, cols)
	}

	boundaryMode := opts.Boundary
	if boundaryMode == "" {
		boundaryMode = ir.BoundaryOpen
	}

	numNodes := rows * cols
	boundary := make([]bool, numNodes)
	if boundaryMode != ir.BoundaryNone {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if r == 0 || c == 0 || r == rows-1 || c == cols-1 {
					boundary[r*cols+c] = true
				}
			}
		}
	}

	var tails, heads, orientations []int
	add := func(tail, head, orientation int) {
		tails = append(tails, tail)
		heads = append(heads, head)
		orientations = append(orientations, orientation)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols-1; c++ {
			add(r*cols+c, r*cols+c+1, Horizontal)
		}
		if r < rows-1 {
			for c := 0; c < cols; c++ {
				add(r*cols+c, (r+1)*cols+c, Vertical)
			}
		}
	}

	numOrientations := 2
	if !opts.Oriented {
		numOrientations = 1
		for i := range orientations {
			orientations[i] = 0
		}
	}

	active := make([]bool, len(tails))
	for link := range tails {
		tb, hb := boundary[tails[link]], boundary[heads[link]]
		switch boundaryMode {
		case ir.BoundaryOpen:
			active[link] = !tb || !hb
		case ir.BoundaryClosed:
			active[link] = !tb && !hb
		case ir.BoundaryNone:
			active[link] = true
		default:
			return nil, fmt.Errorf("grid: unknown boundary mode %q", boundaryMode)
		}
	}

	return New(Spec{
		NumNodes:        numNodes,
		Tails:           tails,
		Heads:           heads,
		Orientations:    orientations,
		NumOrientations: numOrientations,
		Active:          active,
		Boundary:        boundary,
	})
}

// NewChain builds a linear chain of n nodes with n-1 links i -> i+1. All
// nodes are core and all links active.
func NewChain(n int) (*Topology, error) {
	return NewRaster(1, n, RasterOptions{Boundary: ir.BoundaryNone})
}

// FromSpec builds the reference topology described by a model's grid block.
func FromSpec(g ir.GridSpec) (*Topology, error) {
	switch g.Kind {
	case ir.GridRaster:
		return NewRaster(g.Rows, g.Cols, RasterOptions{Oriented: g.Oriented, Boundary: g.Boundary})
	case ir.GridChain:
		return NewChain(g.Cols)
	default:
		return nil, fmt.Errorf("grid: unknown kind %q", g.Kind)
	}
}

// RowCol converts a raster node id to (row, col).
func RowCol(node, cols int) (row, col int) {
	return node / cols, node % cols
}
