package testutil

import (
	"fmt"
	"sync"
)

// ScriptedRand replays fixed exponential and uniform draws so engine tests
// can place events at hand-computed times.
//
// When a list runs out, draws come from Fallback if set; otherwise the call
// panics so a test never silently consumes an unplanned draw.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedRand struct {
	mu       sync.Mutex
	exp      []float64
	uniform  []float64
	expPos   int
	uniPos   int
	Fallback interface {
		ExpFloat64() float64
		Float64() float64
	}
}

// NewScriptedRand creates a stream that returns exp from ExpFloat64 and
// uniform from Float64, in order.
func NewScriptedRand(exp, uniform []float64) *ScriptedRand {
	return &ScriptedRand{
		exp:     append([]float64(nil), exp...),
		uniform: append([]float64(nil), uniform...),
	}
}

// ExpFloat64 returns the next scripted exponential draw.
func (r *ScriptedRand) ExpFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expPos < len(r.exp) {
		v := r.exp[r.expPos]
		r.expPos++
		return v
	}
	if r.Fallback != nil {
		return r.Fallback.ExpFloat64()
	}
	panic(fmt.Sprintf("testutil: exponential draw %d not scripted", r.expPos+1))
}

// Float64 returns the next scripted uniform draw.
func (r *ScriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uniPos < len(r.uniform) {
		v := r.uniform[r.uniPos]
		r.uniPos++
		return v
	}
	if r.Fallback != nil {
		return r.Fallback.Float64()
	}
	panic(fmt.Sprintf("testutil: uniform draw %d not scripted", r.uniPos+1))
}

// Used returns how many exponential and uniform draws have been consumed.
func (r *ScriptedRand) Used() (exp, uniform int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expPos, r.uniPos
}

// Reset rewinds both lists to the start.
func (r *ScriptedRand) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expPos = 0
	r.uniPos = 0
}
