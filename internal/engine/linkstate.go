package engine

import "github.com/roach88/ctslab/internal/ir"

// Classifier maps (tail state, head state, orientation) triples to dense
// link-state indices and back.
//
// Index layout: orientation*n*n + tail*n + head, where n is the number of
// node states. The inverse table is enumerated once at construction; both
// directions are O(1) afterwards.
type Classifier struct {
	numNodeStates   int
	numOrientations int
	triples         []ir.Triple
}

// NewClassifier enumerates all n*n*numOrientations link states.
func NewClassifier(numNodeStates, numOrientations int) (*Classifier, error) {
	if numNodeStates < 1 {
		return nil, newConfigError(ErrCodeInvalidState, -1,
			"need at least one node state, got %d", numNodeStates)
	}
	if numOrientations < 1 {
		return nil, newConfigError(ErrCodeInvalidTopology, -1,
			"need at least one orientation, got %d", numOrientations)
	}

	c := &Classifier{
		numNodeStates:   numNodeStates,
		numOrientations: numOrientations,
		triples:         make([]ir.Triple, 0, numNodeStates*numNodeStates*numOrientations),
	}
	for o := 0; o < numOrientations; o++ {
		for tail := 0; tail < numNodeStates; tail++ {
			for head := 0; head < numNodeStates; head++ {
				c.triples = append(c.triples, ir.Triple{Tail: tail, Head: head, Orientation: o})
			}
		}
	}
	return c, nil
}

// NumNodeStates returns the number of node states.
func (c *Classifier) NumNodeStates() int { return c.numNodeStates }

// NumOrientations returns the number of orientation codes.
func (c *Classifier) NumOrientations() int { return c.numOrientations }

// NumLinkStates returns numNodeStates² × numOrientations.
func (c *Classifier) NumLinkStates() int { return len(c.triples) }

// Valid reports whether every component of t is in range.
func (c *Classifier) Valid(t ir.Triple) bool {
	return t.Tail >= 0 && t.Tail < c.numNodeStates &&
		t.Head >= 0 && t.Head < c.numNodeStates &&
		t.Orientation >= 0 && t.Orientation < c.numOrientations
}

// Index returns the link state for a triple.
func (c *Classifier) Index(tail, head, orientation int) (int, error) {
	t := ir.Triple{Tail: tail, Head: head, Orientation: orientation}
	if !c.Valid(t) {
		return 0, newConfigError(ErrCodeInvalidState, -1,
			"triple %s outside %d node states x %d orientations", t, c.numNodeStates, c.numOrientations)
	}
	return c.index(tail, head, orientation), nil
}

// IndexOf is Index for a Triple.
func (c *Classifier) IndexOf(t ir.Triple) (int, error) {
	return c.Index(t.Tail, t.Head, t.Orientation)
}

// Decompose returns the triple for a link state.
func (c *Classifier) Decompose(linkState int) (ir.Triple, error) {
	if linkState < 0 || linkState >= len(c.triples) {
		return ir.Triple{}, newConfigError(ErrCodeInvalidState, linkState,
			"link state outside [0,%d)", len(c.triples))
	}
	return c.triples[linkState], nil
}

// index is the unchecked hot-path form of Index.
func (c *Classifier) index(tail, head, orientation int) int {
	n := c.numNodeStates
	return orientation*n*n + tail*n + head
}
