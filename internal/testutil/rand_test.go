package testutil

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptedRand_ReplaysInOrder(t *testing.T) {
	r := NewScriptedRand([]float64{1.5, 0.25}, []float64{0.9})

	assert.Equal(t, 1.5, r.ExpFloat64())
	assert.Equal(t, 0.9, r.Float64())
	assert.Equal(t, 0.25, r.ExpFloat64())

	exp, uni := r.Used()
	assert.Equal(t, 2, exp)
	assert.Equal(t, 1, uni)
}

func TestScriptedRand_PanicsWhenExhausted(t *testing.T) {
	r := NewScriptedRand([]float64{1}, nil)
	r.ExpFloat64()

	assert.Panics(t, func() { r.ExpFloat64() })
	assert.Panics(t, func() { r.Float64() })
}

func TestScriptedRand_Fallback(t *testing.T) {
	r := NewScriptedRand([]float64{7}, nil)
	r.Fallback = rand.New(rand.NewSource(3))
	ref := rand.New(rand.NewSource(3))

	assert.Equal(t, 7.0, r.ExpFloat64())
	assert.Equal(t, ref.ExpFloat64(), r.ExpFloat64())
	assert.Equal(t, ref.Float64(), r.Float64())
}

func TestScriptedRand_Reset(t *testing.T) {
	r := NewScriptedRand([]float64{2, 3}, nil)
	r.ExpFloat64()
	r.ExpFloat64()

	r.Reset()

	assert.Equal(t, 2.0, r.ExpFloat64())
}
