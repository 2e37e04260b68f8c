package engine

// Properties tracks one scalar per property slot and the slot assigned to
// each node. A property swap exchanges slot assignments, never slot data, so
// moving a parcel between nodes is O(1) whatever it carries.
type Properties struct {
	data  []float64
	index []int
}

func newProperties(numNodes int, data []float64, index []int) (*Properties, error) {
	if index == nil {
		if len(data) != numNodes {
			return nil, newConfigError(ErrCodeInvalidProperty, -1,
				"identity property index needs %d values, got %d", numNodes, len(data))
		}
		index = make([]int, numNodes)
		for i := range index {
			index[i] = i
		}
	} else {
		if len(index) != numNodes {
			return nil, newConfigError(ErrCodeInvalidProperty, -1,
				"property index has %d entries for %d nodes", len(index), numNodes)
		}
		index = append([]int(nil), index...)
	}

	seen := make([]bool, len(data))
	for node, slot := range index {
		if slot < 0 || slot >= len(data) {
			return nil, newConfigError(ErrCodeInvalidProperty, node,
				"property slot %d outside [0,%d)", slot, len(data))
		}
		if seen[slot] {
			return nil, newConfigError(ErrCodeInvalidProperty, node,
				"property slot %d assigned to more than one node", slot)
		}
		seen[slot] = true
	}

	return &Properties{
		data:  append([]float64(nil), data...),
		index: index,
	}, nil
}

// Slot returns the property slot assigned to node.
func (p *Properties) Slot(node int) int { return p.index[node] }

// Value returns the property value carried by node.
func (p *Properties) Value(node int) float64 { return p.data[p.index[node]] }

// SetValue overwrites the property value carried by node.
func (p *Properties) SetValue(node int, v float64) { p.data[p.index[node]] = v }

// AddValue adds dv to the property value carried by node.
func (p *Properties) AddValue(node int, dv float64) { p.data[p.index[node]] += dv }

// Data returns a copy of the slot data.
func (p *Properties) Data() []float64 { return append([]float64(nil), p.data...) }

// Index returns a copy of the node -> slot assignment.
func (p *Properties) Index() []int { return append([]int(nil), p.index...) }

// NodeValues returns the value carried by each node.
func (p *Properties) NodeValues() []float64 {
	out := make([]float64, len(p.index))
	for node, slot := range p.index {
		out[node] = p.data[slot]
	}
	return out
}

// Sum returns the total over all slots.
func (p *Properties) Sum() float64 {
	var s float64
	for _, v := range p.data {
		s += v
	}
	return s
}

func (p *Properties) swap(a, b int) {
	p.index[a], p.index[b] = p.index[b], p.index[a]
}
