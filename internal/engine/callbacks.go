package engine

import (
	"sort"
	"sync"
)

var (
	callbacksMu sync.RWMutex
	callbacks   = map[string]UpdateFunc{
		"age":   AgeCallback,
		"count": CountCallback,
	}
)

// RegisterCallback makes fn available to model files under name. Registering
// an existing name replaces it. Empty names and nil functions are ignored.
func RegisterCallback(name string, fn UpdateFunc) {
	if name == "" || fn == nil {
		return
	}
	callbacksMu.Lock()
	defer callbacksMu.Unlock()
	callbacks[name] = fn
}

// LookupCallback returns the callback registered under name.
func LookupCallback(name string) (UpdateFunc, bool) {
	callbacksMu.RLock()
	defer callbacksMu.RUnlock()
	fn, ok := callbacks[name]
	return fn, ok
}

// CallbackNames returns the registered names in sorted order.
func CallbackNames() []string {
	callbacksMu.RLock()
	defer callbacksMu.RUnlock()
	names := make([]string, 0, len(callbacks))
	for name := range callbacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AgeCallback adds to each endpoint's property value the time elapsed since
// that node last took part in a transition.
func AgeCallback(e *Engine, tail, head int, now float64) {
	p := e.Properties()
	if p == nil {
		return
	}
	p.AddValue(tail, now-e.LastUpdateTime(tail))
	p.AddValue(head, now-e.LastUpdateTime(head))
}

// CountCallback adds one to each endpoint's property value.
func CountCallback(e *Engine, tail, head int, _ float64) {
	p := e.Properties()
	if p == nil {
		return
	}
	p.AddValue(tail, 1)
	p.AddValue(head, 1)
}
