package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainModel prefixes model hashes. The version suffix allows migrating the
// hashed representation later.
const DomainModel = "ctslab/model/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ModelHash returns a content hash of a model definition.
//
// Two specs hash equal iff their canonical forms match, so runs recorded
// against the same model can be grouped regardless of file formatting.
// The seed is excluded: it parameterises a run, not the model.
func ModelHash(m *ModelSpec) (string, error) {
	canonical, err := MarshalCanonical(m.canonical())
	if err != nil {
		return "", fmt.Errorf("ModelHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}

func (m *ModelSpec) canonical() map[string]any {
	transitions := make([]any, len(m.Transitions))
	for i, t := range m.Transitions {
		obj := map[string]any{
			"from": t.From.canonical(),
			"to":   t.To.canonical(),
			"rate": t.Rate,
			"swap": t.Swap,
		}
		if t.Name != "" {
			obj["name"] = t.Name
		}
		if t.Callback != "" {
			obj["callback"] = t.Callback
		}
		transitions[i] = obj
	}

	grid := map[string]any{
		"kind":     m.Grid.Kind,
		"rows":     m.Grid.Rows,
		"cols":     m.Grid.Cols,
		"oriented": m.Grid.Oriented,
		"boundary": m.Grid.Boundary,
	}

	initial := map[string]any{
		"pattern": m.Initial.Pattern,
		"fill":    m.Initial.Fill,
	}
	if m.Initial.Values != nil {
		initial["values"] = m.Initial.Values
	}
	if m.Initial.States != nil {
		initial["states"] = m.Initial.States
	}

	obj := map[string]any{
		"name":        m.Name,
		"states":      m.States,
		"transitions": transitions,
		"grid":        grid,
		"initial":     initial,
	}
	if m.Properties != nil {
		props := map[string]any{"fill": m.Properties.Fill}
		if m.Properties.Values != nil {
			props["values"] = m.Properties.Values
		}
		if m.Properties.Reset != nil {
			props["reset"] = *m.Properties.Reset
		}
		obj["properties"] = props
	}
	return obj
}

func (t Triple) canonical() []int {
	return []int{t.Tail, t.Head, t.Orientation}
}
