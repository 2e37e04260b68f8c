package engine

// UpdateFunc is invoked after a transition has been applied, with the link's
// tail and head nodes and the current simulated time. It runs inside the
// atomic apply step and may mutate property data via e.Properties().
type UpdateFunc func(e *Engine, tail, head int, now float64)

// Event is a scheduled transition attempt on one link. Events are values;
// once pushed they are never modified. An event is live only while its Time
// equals the link's next-update time.
type Event struct {
	// Time is the simulated time at which the event fires.
	Time float64

	// Link is the link the event applies to.
	Link int

	// To is the target link state.
	To int

	// PropSwap exchanges the endpoints' property slots when set.
	PropSwap bool

	// Update is the optional callback run after the state change.
	Update UpdateFunc

	// Transition is the index of the realized transition in the table.
	Transition int

	// Seq is the queue sequence number, unique per scheduled event. Only
	// the event whose Seq matches its link's latest push is live.
	Seq int64
}

// Applied describes one applied transition, as reported to observers.
type Applied struct {
	Event Event

	// Tail and Head are the link's endpoint nodes.
	Tail int
	Head int

	// From is the link state before the transition.
	From int

	// Name is the transition's declared name.
	Name string
}
