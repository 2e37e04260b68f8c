// Package grid provides immutable link/node topologies for the CTS engine.
//
// The engine only sees the engine.Topology interface; this package supplies a
// general Topology built from explicit adjacency, plus reference raster and
// chain layouts used by the CLI, the harness, and tests.
package grid

import "fmt"

// Spec is the raw input to New. Tails, Heads and Orientations are indexed by
// link id. Active and Boundary may be nil (all links active, no boundary
// nodes).
type Spec struct {
	NumNodes        int
	Tails           []int
	Heads           []int
	Orientations    []int
	NumOrientations int
	Active          []bool
	Boundary        []bool
}

// Topology is an immutable node/link adjacency with per-link orientation.
type Topology struct {
	numNodes        int
	tails           []int
	heads           []int
	orientations    []int
	numOrientations int
	active          []bool
	boundary        []bool
	linksAtNode     [][]int
}

// New validates spec and builds a Topology. Input slices are copied.
func New(spec Spec) (*Topology, error) {
	if spec.NumNodes < 1 {
		return nil, fmt.Errorf("grid: need at least one node, got %d", spec.NumNodes)
	}
	numLinks := len(spec.Tails)
	if len(spec.Heads) != numLinks {
		return nil, fmt.Errorf("grid: %d tails but %d heads", numLinks, len(spec.Heads))
	}
	if spec.NumOrientations < 1 {
		return nil, fmt.Errorf("grid: need at least one orientation, got %d", spec.NumOrientations)
	}

	orientations := spec.Orientations
	if orientations == nil {
		orientations = make([]int, numLinks)
	}
	if len(orientations) != numLinks {
		return nil, fmt.Errorf("grid: %d orientations for %d links", len(orientations), numLinks)
	}
	if spec.Active != nil && len(spec.Active) != numLinks {
		return nil, fmt.Errorf("grid: %d active flags for %d links", len(spec.Active), numLinks)
	}
	if spec.Boundary != nil && len(spec.Boundary) != spec.NumNodes {
		return nil, fmt.Errorf("grid: %d boundary flags for %d nodes", len(spec.Boundary), spec.NumNodes)
	}

	t := &Topology{
		numNodes:        spec.NumNodes,
		tails:           append([]int(nil), spec.Tails...),
		heads:           append([]int(nil), spec.Heads...),
		orientations:    append([]int(nil), orientations...),
		numOrientations: spec.NumOrientations,
		linksAtNode:     make([][]int, spec.NumNodes),
	}
	if spec.Active != nil {
		t.active = append([]bool(nil), spec.Active...)
	}
	if spec.Boundary != nil {
		t.boundary = append([]bool(nil), spec.Boundary...)
	}

	for link := 0; link < numLinks; link++ {
		tail, head := t.tails[link], t.heads[link]
		if tail < 0 || tail >= spec.NumNodes || head < 0 || head >= spec.NumNodes {
			return nil, fmt.Errorf("grid: link %d endpoints (%d,%d) out of range", link, tail, head)
		}
		if tail == head {
			return nil, fmt.Errorf("grid: link %d is a self-loop on node %d", link, tail)
		}
		if o := t.orientations[link]; o < 0 || o >= spec.NumOrientations {
			return nil, fmt.Errorf("grid: link %d orientation %d outside [0,%d)", link, o, spec.NumOrientations)
		}
		t.linksAtNode[tail] = append(t.linksAtNode[tail], link)
		t.linksAtNode[head] = append(t.linksAtNode[head], link)
	}

	return t, nil
}

// NumNodes returns the node count.
func (t *Topology) NumNodes() int { return t.numNodes }

// NumLinks returns the link count.
func (t *Topology) NumLinks() int { return len(t.tails) }

// LinkNodes returns the tail and head node of a link.
func (t *Topology) LinkNodes(link int) (tail, head int) {
	return t.tails[link], t.heads[link]
}

// Orientation returns the orientation code of a link.
func (t *Topology) Orientation(link int) int { return t.orientations[link] }

// NumOrientations returns the number of distinct orientation codes.
func (t *Topology) NumOrientations() int { return t.numOrientations }

// LinksAtNode returns the links incident to node, in ascending link order.
// The returned slice must not be modified.
func (t *Topology) LinksAtNode(node int) []int { return t.linksAtNode[node] }

// IsActiveLink reports whether the engine may schedule transitions on link.
func (t *Topology) IsActiveLink(link int) bool {
	if t.active == nil {
		return true
	}
	return t.active[link]
}

// IsBoundaryNode reports whether node lies on the grid boundary.
func (t *Topology) IsBoundaryNode(node int) bool {
	if t.boundary == nil {
		return false
	}
	return t.boundary[node]
}

// NumActiveLinks counts links for which IsActiveLink is true.
func (t *Topology) NumActiveLinks() int {
	n := 0
	for link := range t.tails {
		if t.IsActiveLink(link) {
			n++
		}
	}
	return n
}
