package engine

import (
	"math"

	"github.com/roach88/ctslab/internal/ir"
)

// Transition declares a stochastic change from one link state to another.
// Several transitions may share From; they then compete.
type Transition struct {
	From           ir.Triple
	To             ir.Triple
	Rate           float64
	Name           string
	SwapProperties bool
	Update         UpdateFunc
}

// Candidate is a resolved transition as stored in the table.
type Candidate struct {
	ID       int
	To       int
	Rate     float64
	PropSwap bool
	Update   UpdateFunc
	Name     string
}

// Table indexes transitions by their from link state.
type Table struct {
	classifier  *Classifier
	byState     [][]Candidate
	totalRate   []float64
	transitions []Transition
}

// NewTable validates xns against c and groups them by from link state,
// preserving declaration order within each group.
//
// Fails with a ConfigError when a triple is outside the classifier's range,
// when a transition would change the link's orientation, or when a rate is
// not strictly positive and finite.
func NewTable(c *Classifier, xns []Transition) (*Table, error) {
	t := &Table{
		classifier:  c,
		byState:     make([][]Candidate, c.NumLinkStates()),
		totalRate:   make([]float64, c.NumLinkStates()),
		transitions: append([]Transition(nil), xns...),
	}

	for i, xn := range xns {
		if !c.Valid(xn.From) {
			return nil, &ConfigError{
				Code:    ErrCodeInvalidState,
				Message: "from state " + xn.From.String() + " is not a valid link state",
				Index:   i,
				Name:    xn.Name,
			}
		}
		if !c.Valid(xn.To) {
			return nil, &ConfigError{
				Code:    ErrCodeInvalidState,
				Message: "to state " + xn.To.String() + " is not a valid link state",
				Index:   i,
				Name:    xn.Name,
			}
		}
		if xn.From.Orientation != xn.To.Orientation {
			return nil, &ConfigError{
				Code:    ErrCodeInvalidState,
				Message: "transition " + xn.From.String() + "->" + xn.To.String() + " changes link orientation",
				Index:   i,
				Name:    xn.Name,
			}
		}
		if !(xn.Rate > 0) || math.IsInf(xn.Rate, 0) {
			return nil, &ConfigError{
				Code:    ErrCodeInvalidRate,
				Message: "rate must be positive and finite",
				Index:   i,
				Name:    xn.Name,
			}
		}

		from := c.index(xn.From.Tail, xn.From.Head, xn.From.Orientation)
		t.byState[from] = append(t.byState[from], Candidate{
			ID:       i,
			To:       c.index(xn.To.Tail, xn.To.Head, xn.To.Orientation),
			Rate:     xn.Rate,
			PropSwap: xn.SwapProperties,
			Update:   xn.Update,
			Name:     xn.Name,
		})
		t.totalRate[from] += xn.Rate
	}

	return t, nil
}

// Classifier returns the classifier the table was built against.
func (t *Table) Classifier() *Classifier { return t.classifier }

// Candidates returns the competing transitions out of linkState in
// declaration order. The slice must not be modified.
func (t *Table) Candidates(linkState int) []Candidate { return t.byState[linkState] }

// Count returns the number of transitions out of linkState.
func (t *Table) Count(linkState int) int { return len(t.byState[linkState]) }

// TotalRate returns the summed rate of transitions out of linkState.
func (t *Table) TotalRate(linkState int) float64 { return t.totalRate[linkState] }

// NumTransitions returns the number of declared transitions.
func (t *Table) NumTransitions() int { return len(t.transitions) }

// Transition returns a declared transition by index.
func (t *Table) Transition(id int) Transition { return t.transitions[id] }

// choose picks one of the competing candidates with probability proportional
// to its rate, given u drawn uniformly from [0, total).
func choose(cands []Candidate, u float64) Candidate {
	var cum float64
	for _, c := range cands {
		cum += c.Rate
		if u < cum {
			return c
		}
	}
	// Rounding can leave u == total.
	return cands[len(cands)-1]
}
