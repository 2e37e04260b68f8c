package engine

// Observer receives engine events. Methods run synchronously inside the run
// loop and must not call back into Run.
type Observer interface {
	// EventScheduled is called after an event is pushed.
	EventScheduled(ev Event)

	// EventApplied is called after a live event has been applied and before
	// affected links are rescheduled.
	EventApplied(a Applied)

	// EventDiscarded is called when a stale event is popped.
	EventDiscarded(ev Event)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) EventScheduled(Event) {}
func (NopObserver) EventApplied(Applied) {}
func (NopObserver) EventDiscarded(Event) {}

// MultiObserver fans out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) EventScheduled(ev Event) {
	for _, o := range m {
		o.EventScheduled(ev)
	}
}

func (m MultiObserver) EventApplied(a Applied) {
	for _, o := range m {
		o.EventApplied(a)
	}
}

func (m MultiObserver) EventDiscarded(ev Event) {
	for _, o := range m {
		o.EventDiscarded(ev)
	}
}
