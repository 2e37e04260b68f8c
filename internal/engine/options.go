package engine

import (
	"log/slog"
	"math/rand"
)

// DefaultSeed seeds the random stream when neither WithSeed nor WithRand is
// given.
const DefaultSeed int64 = 1

// Rand is the random stream the engine draws from. *rand.Rand satisfies it.
type Rand interface {
	// ExpFloat64 returns an exponentially distributed value with rate 1.
	ExpFloat64() float64

	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed draws from math/rand seeded with seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand draws from r. Use it to share or script a random stream.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithPropertyData enables property tracking with one value per slot.
// Without WithPropertyIndex node i uses slot i.
func WithPropertyData(data []float64) Option {
	return func(e *Engine) {
		e.propData = data
	}
}

// WithPropertyIndex sets the initial node -> property slot assignment.
// Requires WithPropertyData.
func WithPropertyIndex(index []int) Option {
	return func(e *Engine) {
		e.propIndex = index
	}
}

// WithPropReset writes v into a boundary node's property slot after every
// property swap involving it.
func WithPropReset(v float64) Option {
	return func(e *Engine) {
		e.propReset = &v
	}
}

// WithObserver registers o for scheduling and apply notifications.
// Multiple calls accumulate.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o == nil {
			return
		}
		if m, ok := e.observer.(MultiObserver); ok {
			e.observer = append(m, o)
			return
		}
		if _, ok := e.observer.(NopObserver); ok {
			e.observer = o
			return
		}
		e.observer = MultiObserver{e.observer, o}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
