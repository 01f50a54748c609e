package mapping

import (
	"fmt"
)

// Preset is a set of Mappings whose combinations are unique up to
// permutation of their non-trigger elements (spec §3's Preset
// definition, resolved via SPEC_FULL.md §5's canonical ordering).
type Preset struct {
	mappings map[string]*Mapping // keyed by InputCombination.CanonicalKey
	order    []string            // preserves insertion order for deterministic iteration
}

func NewPreset() *Preset {
	return &Preset{mappings: make(map[string]*Mapping)}
}

// Add inserts m, rejecting it if its combination collides (up to
// permutation) with one already present.
func (p *Preset) Add(m *Mapping) error {
	key := m.EventCombination.CanonicalKey()
	if existing, ok := p.mappings[key]; ok {
		return fmt.Errorf("combination %v already mapped (as %v, considering permutations of non-trigger elements)", m.EventCombination, existing.EventCombination)
	}
	p.mappings[key] = m
	p.order = append(p.order, key)
	return nil
}

// Mappings returns every mapping in insertion order.
func (p *Preset) Mappings() []*Mapping {
	out := make([]*Mapping, len(p.order))
	for i, key := range p.order {
		out[i] = p.mappings[key]
	}
	return out
}

// Len reports how many mappings are in the preset.
func (p *Preset) Len() int { return len(p.order) }
