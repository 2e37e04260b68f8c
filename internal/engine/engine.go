package engine

import (
	"log/slog"
	"math"

	"github.com/roach88/ctslab/internal/ir"
)

// Never is the next-update time of a link with no scheduled event.
var Never = math.Inf(1)

// noEvent is the next sequence number of a link with no scheduled event.
const noEvent int64 = -1

// Topology is the grid the engine runs on. It is read-only to the engine and
// must not change after New.
type Topology interface {
	NumNodes() int
	NumLinks() int
	LinkNodes(link int) (tail, head int)
	Orientation(link int) int
	NumOrientations() int
	LinksAtNode(node int) []int
	IsActiveLink(link int) bool
	IsBoundaryNode(node int) bool
}

// Stats counts scheduler activity since construction.
type Stats struct {
	Scheduled int64 `json:"scheduled"`
	Applied   int64 `json:"applied"`
	Stale     int64 `json:"stale"`
	Pending   int   `json:"pending"`
}

// Engine is the CTS discrete-event engine.
//
// The engine exclusively owns the node-state, link-state, next-update and
// property arrays and the event queue. Topology and transitions are shared
// read-only inputs.
//
// Engine is not safe for concurrent use.
type Engine struct {
	topo       Topology
	stateNames []string
	classifier *Classifier
	table      *Table

	nodeState  []int
	linkState  []int
	nextUpdate []float64
	nextSeq    []int64
	lastUpdate []float64
	queue      *Queue[Event]

	currentTime float64

	props     *Properties
	propData  []float64
	propIndex []int
	propReset *float64

	rng      Rand
	observer Observer
	log      *slog.Logger
	stats    Stats
}

// New builds an engine and schedules the initial event of every active link.
//
// stateNames labels each node state; its length is the number of node
// states. initial holds one state per node and is copied.
//
// Returns a ConfigError when the transitions, initial states, topology or
// property options are inconsistent.
func New(
	topo Topology,
	stateNames []string,
	xns []Transition,
	initial []int,
	opts ...Option,
) (*Engine, error) {
	if topo == nil {
		return nil, newConfigError(ErrCodeInvalidTopology, -1, "topology is nil")
	}

	classifier, err := NewClassifier(len(stateNames), topo.NumOrientations())
	if err != nil {
		return nil, err
	}
	table, err := NewTable(classifier, xns)
	if err != nil {
		return nil, err
	}

	numNodes := topo.NumNodes()
	numLinks := topo.NumLinks()

	if len(initial) != numNodes {
		return nil, newConfigError(ErrCodeInvalidInitialState, -1,
			"initial state has %d entries for %d nodes", len(initial), numNodes)
	}
	for node, s := range initial {
		if s < 0 || s >= len(stateNames) {
			return nil, newConfigError(ErrCodeInvalidInitialState, node,
				"node state %d outside [0,%d)", s, len(stateNames))
		}
	}
	for link := 0; link < numLinks; link++ {
		if o := topo.Orientation(link); o < 0 || o >= topo.NumOrientations() {
			return nil, newConfigError(ErrCodeInvalidTopology, link,
				"orientation %d outside [0,%d)", o, topo.NumOrientations())
		}
	}

	e := &Engine{
		topo:       topo,
		stateNames: append([]string(nil), stateNames...),
		classifier: classifier,
		table:      table,
		nodeState:  append([]int(nil), initial...),
		linkState:  make([]int, numLinks),
		nextUpdate: make([]float64, numLinks),
		nextSeq:    make([]int64, numLinks),
		lastUpdate: make([]float64, numNodes),
		queue:      NewQueue[Event](),
		observer:   NopObserver{},
		log:        slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		WithSeed(DefaultSeed)(e)
	}

	if e.propData != nil {
		e.props, err = newProperties(numNodes, e.propData, e.propIndex)
		if err != nil {
			return nil, err
		}
	} else if e.propIndex != nil {
		return nil, newConfigError(ErrCodeInvalidProperty, -1, "property index given without property data")
	}
	e.propData, e.propIndex = nil, nil

	e.rescheduleAll()

	e.log.Info("engine initialized",
		"nodes", numNodes,
		"links", numLinks,
		"link_states", classifier.NumLinkStates(),
		"transitions", table.NumTransitions(),
		"scheduled", e.stats.Scheduled,
	)

	return e, nil
}

// Run advances the simulation to until.
//
// Events are applied in (time, sequence) order. When the next event lies
// beyond until, CurrentTime becomes until and the event stays queued, so a
// later Run resumes with the same scheduled time. When the queue drains,
// CurrentTime stays at the last applied event. Run is a no-op when until is
// not after CurrentTime.
func (e *Engine) Run(until float64) {
	if until <= e.currentTime {
		return
	}

	applied, stale := e.stats.Applied, e.stats.Stale
	for e.Step(until) {
	}

	e.log.Debug("run complete",
		"until", until,
		"time", e.currentTime,
		"applied", e.stats.Applied-applied,
		"stale", e.stats.Stale-stale,
		"pending", e.queue.Len(),
	)
}

// Step processes at most one queued event at or before until. It returns
// false when nothing was processed: the queue is empty or the next event
// lies beyond until (CurrentTime is then advanced to until).
//
// A processed event is either applied or discarded as stale.
func (e *Engine) Step(until float64) bool {
	t, ok := e.queue.PeekTime()
	if !ok {
		return false
	}
	if t > until {
		if until > e.currentTime {
			e.currentTime = until
		}
		return false
	}

	entry, err := e.queue.Pop()
	if err != nil {
		return false
	}
	ev := eventOf(entry)

	if !e.IsLive(ev) {
		e.stats.Stale++
		e.observer.EventDiscarded(ev)
		return true
	}

	e.apply(ev)
	return true
}

// apply performs one live event atomically: state write, property swap,
// callback, then rescheduling.
func (e *Engine) apply(ev Event) {
	link := ev.Link
	tail, head := e.topo.LinkNodes(link)
	from := e.linkState[link]
	to := e.classifier.triples[ev.To]

	e.currentTime = ev.Time

	tailChanged := e.nodeState[tail] != to.Tail
	headChanged := e.nodeState[head] != to.Head
	e.nodeState[tail] = to.Tail
	e.nodeState[head] = to.Head

	if ev.PropSwap && e.props != nil {
		e.props.swap(tail, head)
		if e.propReset != nil {
			if e.topo.IsBoundaryNode(tail) {
				e.props.SetValue(tail, *e.propReset)
			}
			if e.topo.IsBoundaryNode(head) {
				e.props.SetValue(head, *e.propReset)
			}
		}
	}

	if ev.Update != nil {
		ev.Update(e, tail, head, e.currentTime)
	}

	e.lastUpdate[tail] = e.currentTime
	e.lastUpdate[head] = e.currentTime

	e.stats.Applied++
	e.observer.EventApplied(Applied{
		Event: ev,
		Tail:  tail,
		Head:  head,
		From:  from,
		Name:  e.table.transitions[ev.Transition].Name,
	})

	e.linkState[link] = e.computeLinkState(link)
	e.schedule(link)

	if tailChanged {
		e.refreshNode(tail, link)
	}
	if headChanged {
		e.refreshNode(head, link)
	}
}

// refreshNode recomputes the links at node other than skip and reschedules
// those whose link state changed.
func (e *Engine) refreshNode(node, skip int) {
	for _, l := range e.topo.LinksAtNode(node) {
		if l == skip {
			continue
		}
		ls := e.computeLinkState(l)
		if ls == e.linkState[l] {
			continue
		}
		e.linkState[l] = ls
		if e.topo.IsActiveLink(l) {
			e.schedule(l)
		}
	}
}

// schedule draws the next event for link from its current link state, or
// marks it Never when no transition applies. Any previously queued event for
// the link becomes stale.
func (e *Engine) schedule(link int) {
	ls := e.linkState[link]
	cands := e.table.byState[ls]
	if len(cands) == 0 {
		e.nextUpdate[link] = Never
		e.nextSeq[link] = noEvent
		return
	}

	total := e.table.totalRate[ls]
	wait := e.rng.ExpFloat64() / total
	c := cands[0]
	if len(cands) > 1 {
		c = choose(cands, e.rng.Float64()*total)
	}

	ev := Event{
		Time:       e.currentTime + wait,
		Link:       link,
		To:         c.To,
		PropSwap:   c.PropSwap,
		Update:     c.Update,
		Transition: c.ID,
	}
	ev.Seq = e.queue.Push(ev, ev.Time)
	e.nextUpdate[link] = ev.Time
	e.nextSeq[link] = ev.Seq
	e.stats.Scheduled++
	e.observer.EventScheduled(ev)
}

// rescheduleAll recomputes every link state and draws a fresh event for
// every active link, in link order.
func (e *Engine) rescheduleAll() {
	for link := range e.linkState {
		e.linkState[link] = e.computeLinkState(link)
		e.nextUpdate[link] = Never
		e.nextSeq[link] = noEvent
		if e.topo.IsActiveLink(link) {
			e.schedule(link)
		}
	}
}

func (e *Engine) computeLinkState(link int) int {
	tail, head := e.topo.LinkNodes(link)
	return e.classifier.index(e.nodeState[tail], e.nodeState[head], e.topo.Orientation(link))
}

// SetNodeStates replaces the node-state array between runs, for drivers
// that modify the grid externally (uplift, injection). All link states are
// recomputed and every active link is rescheduled with a fresh draw; events
// already queued become stale. Nodes whose state changed get CurrentTime as
// their last update time.
func (e *Engine) SetNodeStates(states []int) error {
	if len(states) != len(e.nodeState) {
		return newConfigError(ErrCodeInvalidInitialState, -1,
			"node state has %d entries for %d nodes", len(states), len(e.nodeState))
	}
	for node, s := range states {
		if s < 0 || s >= len(e.stateNames) {
			return newConfigError(ErrCodeInvalidInitialState, node,
				"node state %d outside [0,%d)", s, len(e.stateNames))
		}
	}

	for node, s := range states {
		if e.nodeState[node] != s {
			e.nodeState[node] = s
			e.lastUpdate[node] = e.currentTime
		}
	}
	e.rescheduleAll()
	return nil
}

// CurrentTime returns the simulated time.
func (e *Engine) CurrentTime() float64 { return e.currentTime }

// NodeStates returns a copy of the node-state array.
func (e *Engine) NodeStates() []int { return append([]int(nil), e.nodeState...) }

// NodeState returns the state of one node.
func (e *Engine) NodeState(node int) int { return e.nodeState[node] }

// LinkState returns the link-state index of one link.
func (e *Engine) LinkState(link int) int { return e.linkState[link] }

// LinkTriple returns the (tail, head, orientation) triple of one link.
func (e *Engine) LinkTriple(link int) ir.Triple { return e.classifier.triples[e.linkState[link]] }

// NextUpdate returns the time of the link's live event, or Never.
func (e *Engine) NextUpdate(link int) float64 { return e.nextUpdate[link] }

// LastUpdateTime returns when node last took part in a transition (0 if
// never).
func (e *Engine) LastUpdateTime(node int) float64 { return e.lastUpdate[node] }

// Properties returns the property tracker, or nil when disabled.
func (e *Engine) Properties() *Properties { return e.props }

// StateNames returns the node-state labels.
func (e *Engine) StateNames() []string { return append([]string(nil), e.stateNames...) }

// Classifier returns the link-state classifier.
func (e *Engine) Classifier() *Classifier { return e.classifier }

// Table returns the transition table.
func (e *Engine) Table() *Table { return e.table }

// Topology returns the topology the engine runs on.
func (e *Engine) Topology() Topology { return e.topo }

// Stats returns scheduler counters. Pending is the queue length including
// stale entries.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Pending = e.queue.Len()
	return s
}

// PeekEvent returns the earliest queued event, which may be stale.
func (e *Engine) PeekEvent() (Event, bool) {
	entry, ok := e.queue.Peek()
	if !ok {
		return Event{}, false
	}
	return eventOf(entry), true
}

// IsLive reports whether ev is the authoritative event for its link. Events
// are matched by sequence number, so two queued events for one link at the
// same time are never both live.
func (e *Engine) IsLive(ev Event) bool {
	return ev.Seq == e.nextSeq[ev.Link]
}

// eventOf returns the queued event with its sequence number filled in.
func eventOf(entry Entry[Event]) Event {
	ev := entry.Item
	ev.Seq = entry.Seq
	return ev
}

// Pending returns the live queued events in the order they would fire.
func (e *Engine) Pending() []Event {
	entries := e.queue.Entries()
	out := make([]Event, 0, len(entries))
	for _, entry := range entries {
		if ev := eventOf(entry); e.IsLive(ev) {
			out = append(out, ev)
		}
	}
	return out
}
