// Package bounds tracks provable pre-activation bounds for every neuron of a
// network over a bounded input region, and derives each neuron's stability
// from them. The bounds table replaces the process-global bound state of the
// original design: it is owned by the orchestrator and passed by reference.
package bounds

import (
	"errors"
	"fmt"
)

// ErrInconsistent signals a lower bound above an upper bound. This is always
// an internal propagation or folding bug and must never be papered over.
var ErrInconsistent = errors.New("bounds: lower bound exceeds upper bound")

// Box is the axis-aligned input region the stability proofs hold over.
type Box struct {
	Lo, Hi []float64
}

// NewBox validates that the per-feature bounds are well ordered.
func NewBox(lo, hi []float64) (Box, error) {
	b := Box{Lo: lo, Hi: hi}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Validate checks that the box has matching widths and well-ordered bounds.
// Boxes built literally instead of through NewBox go through it before use.
func (b Box) Validate() error {
	if len(b.Lo) != len(b.Hi) {
		return fmt.Errorf("bounds: box has %d lower but %d upper bounds", len(b.Lo), len(b.Hi))
	}
	for i := range b.Lo {
		if b.Lo[i] > b.Hi[i] {
			return fmt.Errorf("bounds: box feature %d: %w", i, ErrInconsistent)
		}
	}
	return nil
}

// Interval is a provable [L, U] enclosure of a neuron's pre-activation value.
type Interval struct {
	L, U float64
}

// Stability is derived from an interval, never stored independently.
type Stability uint8

const (
	Unstable Stability = iota
	StableInactive
	StableActive
)

func (s Stability) String() string {
	switch s {
	case StableInactive:
		return "inactive"
	case StableActive:
		return "active"
	default:
		return "unstable"
	}
}

// Stability classifies the neuron. A degenerate L==U==0 interval counts as
// inactive: the neuron's output is the constant zero either way.
func (iv Interval) Stability() Stability {
	switch {
	case iv.U <= 0:
		return StableInactive
	case iv.L >= 0:
		return StableActive
	default:
		return Unstable
	}
}

// Table maps (layer, original neuron index) to its current interval. Entries
// only ever tighten; they are written once per layer by propagation and then
// refined by the optimization-based tightener.
type Table struct {
	layers []map[int]Interval
}

// NewTable allocates a table for a network of the given depth.
func NewTable(depth int) *Table {
	t := &Table{layers: make([]map[int]Interval, depth)}
	for k := range t.layers {
		t.layers[k] = make(map[int]Interval)
	}
	return t
}

// Get returns the interval for neuron `neuron` of layer `layer`, if any.
func (t *Table) Get(layer, neuron int) (Interval, bool) {
	iv, ok := t.layers[layer][neuron]
	return iv, ok
}

// Set records the initial interval for a neuron.
func (t *Table) Set(layer, neuron int, iv Interval) error {
	if iv.L > iv.U {
		return fmt.Errorf("bounds: neuron (%d,%d) [%g,%g]: %w", layer, neuron, iv.L, iv.U, ErrInconsistent)
	}
	t.layers[layer][neuron] = iv
	return nil
}

// Tighten merges iv into the stored interval with a monotone min/max
// reduction: the result never widens, and because min/max are commutative the
// outcome is independent of the order tightened values arrive in.
func (t *Table) Tighten(layer, neuron int, iv Interval) (Interval, error) {
	cur, ok := t.layers[layer][neuron]
	if !ok {
		return iv, t.Set(layer, neuron, iv)
	}
	merged := Interval{L: max(cur.L, iv.L), U: min(cur.U, iv.U)}
	if merged.L > merged.U {
		return cur, fmt.Errorf("bounds: neuron (%d,%d) [%g,%g]: %w", layer, neuron, merged.L, merged.U, ErrInconsistent)
	}
	t.layers[layer][neuron] = merged
	return merged, nil
}
