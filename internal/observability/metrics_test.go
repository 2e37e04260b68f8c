package observability

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctslab/internal/engine"
	"github.com/roach88/ctslab/internal/grid"
	"github.com/roach88/ctslab/internal/ir"
	scripted "github.com/roach88/ctslab/internal/testutil"
)

func newCollector(t *testing.T) (*EngineCollector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewEngineCollector(reg)
	require.NoError(t, err)
	return c, reg
}

// runChain moves one particle along a three-node chain at times 1 and 3.
func runChain(t *testing.T, obs engine.Observer) *engine.Engine {
	t.Helper()
	topo, err := grid.NewChain(3)
	require.NoError(t, err)
	e, err := engine.New(topo, []string{"empty", "full"}, []engine.Transition{
		{From: ir.Triple{Tail: 1}, To: ir.Triple{Head: 1}, Rate: 1, Name: "move"},
	}, []int{1, 0, 0},
		engine.WithRand(scripted.NewScriptedRand([]float64{1, 2}, nil)),
		engine.WithObserver(obs),
	)
	require.NoError(t, err)
	e.Run(10)
	return e
}

func TestEngineCollector_CountsRun(t *testing.T) {
	c, _ := newCollector(t)
	runChain(t, c)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Scheduled))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Applied.WithLabelValues("move")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Stale))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.SimTime))
}

func TestEngineCollector_StaleAndUnnamed(t *testing.T) {
	c, _ := newCollector(t)

	c.EventDiscarded(engine.Event{})
	c.EventDiscarded(engine.Event{})
	c.EventApplied(engine.Applied{Event: engine.Event{Time: 0.25}})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Stale))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Applied.WithLabelValues(unnamed)))
	assert.Equal(t, 0.25, testutil.ToFloat64(c.SimTime))
}

func TestEngineCollector_NilSafe(t *testing.T) {
	var c *EngineCollector
	assert.NotPanics(t, func() {
		c.EventScheduled(engine.Event{})
		c.EventApplied(engine.Applied{})
		c.EventDiscarded(engine.Event{})
	})
	assert.Equal(t, prometheus.DefaultGatherer, c.Gatherer())
}

func TestNewEngineCollector_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewEngineCollector(reg)
	require.NoError(t, err)
	b, err := NewEngineCollector(reg)
	require.NoError(t, err)

	a.Scheduled.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Scheduled), "second collector shares the registered counter")
}

func TestNewEngineCollector_IncompatibleType(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ctslab_events_scheduled_total",
		Help: "Events pushed onto the engine queue.",
	})))

	_, err := NewEngineCollector(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctslab_events_scheduled_total")
}

func TestNewEngineCollector_CounterUnderGaugeName(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ctslab_sim_time",
		Help: "Simulated time of the last applied transition.",
	})))

	_, err := NewEngineCollector(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctslab_sim_time")
}

func TestWriteText(t *testing.T) {
	c, reg := newCollector(t)
	runChain(t, c)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, c.Gatherer()))
	out := buf.String()

	assert.Contains(t, out, "# TYPE ctslab_events_scheduled_total counter")
	assert.Contains(t, out, "ctslab_events_scheduled_total 2")
	assert.Contains(t, out, `ctslab_transitions_applied_total{transition="move"} 2`)
	assert.Contains(t, out, "ctslab_sim_time 3")

	families, err := reg.Gather()
	require.NoError(t, err)
	var applied *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "ctslab_transitions_applied_total" {
			applied = mf
		}
	}
	require.NotNil(t, applied)
	require.Len(t, applied.GetMetric(), 1)
	assert.Equal(t, 2.0, applied.GetMetric()[0].GetCounter().GetValue())
}
