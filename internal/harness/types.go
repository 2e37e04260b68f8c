package harness

import "github.com/roach88/ctslab/internal/store"

// Sample is the grid at one horizon.
type Sample struct {
	// Until is the requested horizon; zero for the initial sample.
	Until      float64   `json:"until"`
	Time       float64   `json:"time"`
	NodeStates []int     `json:"node_states"`
	Properties []float64 `json:"properties,omitempty"`
	Applied    int64     `json:"applied"`
	Stale      int64     `json:"stale"`
}

// Trajectory is everything a scenario run produced, in order.
type Trajectory struct {
	Initial     Sample                   `json:"initial"`
	Checkpoints []Sample                 `json:"checkpoints"`
	Transitions []store.TransitionRecord `json:"transitions"`
}

// Final returns the last checkpoint sample, or the initial sample when there
// are none.
func (t *Trajectory) Final() Sample {
	if len(t.Checkpoints) == 0 {
		return t.Initial
	}
	return t.Checkpoints[len(t.Checkpoints)-1]
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every checkpoint expectation and assertion held.
	Pass bool `json:"pass"`

	// Trajectory is the recorded run.
	Trajectory Trajectory `json:"trajectory"`

	// StateNames labels node states, for state_count.
	StateNames []string `json:"state_names"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func sampleMap(s Sample, withUntil bool) map[string]any {
	m := map[string]any{
		"time":        s.Time,
		"node_states": s.NodeStates,
		"applied":     s.Applied,
		"stale":       s.Stale,
	}
	if withUntil {
		m["until"] = s.Until
	}
	if s.Properties != nil {
		m["properties"] = s.Properties
	}
	return m
}

// toCanonicalMap converts the trajectory to plain maps for
// ir.MarshalCanonical, which only handles primitives, slices and maps.
func (t *Trajectory) toCanonicalMap(name string) map[string]any {
	checkpoints := make([]any, len(t.Checkpoints))
	for i, cp := range t.Checkpoints {
		checkpoints[i] = sampleMap(cp, true)
	}

	transitions := make([]any, len(t.Transitions))
	for i, rec := range t.Transitions {
		transitions[i] = map[string]any{
			"seq":        rec.Seq,
			"time":       rec.Time,
			"link":       rec.Link,
			"tail":       rec.Tail,
			"head":       rec.Head,
			"from":       rec.From,
			"to":         rec.To,
			"transition": rec.Transition,
			"name":       rec.Name,
		}
	}

	return map[string]any{
		"scenario":    name,
		"initial":     sampleMap(t.Initial, false),
		"checkpoints": checkpoints,
		"transitions": transitions,
	}
}
