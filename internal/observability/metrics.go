package observability

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/ctslab/internal/engine"
)

// unnamed labels transitions declared without a name.
const unnamed = "unnamed"

// EngineCollector bundles Prometheus metrics for the engine's scheduler.
// It implements engine.Observer.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	Scheduled prometheus.Counter
	Applied   *prometheus.CounterVec
	Stale     prometheus.Counter
	SimTime   prometheus.Gauge
}

var _ engine.Observer = (*EngineCollector)(nil)

// NewEngineCollector registers engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	scheduled, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ctslab_events_scheduled_total",
		Help: "Events pushed onto the engine queue.",
	}), "ctslab_events_scheduled_total")
	if err != nil {
		return nil, err
	}

	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ctslab_transitions_applied_total",
		Help: "Transitions applied, labeled by transition name.",
	}, []string{"transition"})
	applied, err = registerCounterVec(reg, applied, "ctslab_transitions_applied_total")
	if err != nil {
		return nil, err
	}

	stale, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ctslab_events_stale_total",
		Help: "Superseded events discarded when popped.",
	}), "ctslab_events_stale_total")
	if err != nil {
		return nil, err
	}

	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ctslab_sim_time",
		Help: "Simulated time of the last applied transition.",
	}), "ctslab_sim_time")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:  gatherer,
		Scheduled: scheduled,
		Applied:   applied,
		Stale:     stale,
		SimTime:   simTime,
	}, nil
}

// Gatherer returns the gatherer the collector's metrics are visible through.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// EventScheduled counts a pushed event.
func (c *EngineCollector) EventScheduled(engine.Event) {
	if c == nil || c.Scheduled == nil {
		return
	}
	c.Scheduled.Inc()
}

// EventApplied counts an applied transition and advances the time gauge.
func (c *EngineCollector) EventApplied(a engine.Applied) {
	if c == nil {
		return
	}
	name := a.Name
	if name == "" {
		name = unnamed
	}
	if c.Applied != nil {
		c.Applied.WithLabelValues(name).Inc()
	}
	if c.SimTime != nil {
		c.SimTime.Set(a.Event.Time)
	}
}

// EventDiscarded counts a stale event.
func (c *EngineCollector) EventDiscarded(engine.Event) {
	if c == nil || c.Stale == nil {
		return
	}
	c.Stale.Inc()
}

// WriteText writes every metric family in g in the Prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			// A Gauge also satisfies Counter (Inc, Add), so rule it out first.
			if _, isGauge := are.ExistingCollector.(prometheus.Gauge); isGauge {
				return nil, fmt.Errorf("collector %s already registered as a gauge", name)
			}
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
