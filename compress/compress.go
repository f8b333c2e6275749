// Package compress drives the layer-by-layer compression loop: bound every
// neuron of a layer, fold the stable ones out, advance. The result computes
// the same function as the input network on every point of the input box.
package compress

import (
	"context"
	"fmt"

	"github.com/kankeinai/Gogeta/bounds"
	"github.com/kankeinai/Gogeta/logger"
	"github.com/kankeinai/Gogeta/network"
	"github.com/kankeinai/Gogeta/prune"
	"github.com/kankeinai/Gogeta/tighten"
)

// Result is the outcome of one compression run.
type Result struct {
	// Network is the pruned model (the same instance Compress mutated).
	Network *network.Network
	// Removed lists, per layer, the original neuron indices removed by this
	// run. The output layer entry is always empty.
	Removed [][]int
	// Lower and Upper hold the final pre-activation bounds per surviving
	// layer, aligned with the surviving neurons and with fully collapsed
	// layers omitted. Nil when precomputed bounds were supplied.
	Lower, Upper [][]float64
}

// Compress proves per-neuron stability over the input box and folds stable
// neurons out of net, in place. Layers are processed strictly in order,
// since pruning layer k changes the shapes and the chaining that layer k+1's
// bounds depend on; within a layer, standard mode fans the per-neuron solves
// out to a worker pool.
//
// Precondition violations (unknown mode, standard mode without a solver,
// malformed box or precomputed bounds) are rejected before any work.
// Per-neuron solver failures only cost refinement and are logged as
// warnings; inconsistent bounds abort, they mean a bug, not bad input.
func Compress(ctx context.Context, net *network.Network, box bounds.Box, opts ...Option) (*Result, error) {
	cfg := config{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if net == nil {
		return nil, fmt.Errorf("%w: nil network", ErrPrecondition)
	}
	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	if len(box.Lo) != net.Inputs() {
		return nil, fmt.Errorf("%w: box has %d features, network has %d inputs", ErrPrecondition, len(box.Lo), net.Inputs())
	}
	if cfg.mode == Standard && cfg.solver == nil {
		return nil, fmt.Errorf("%w: standard mode requires a solver", ErrPrecondition)
	}

	tbl := bounds.NewTable(net.Depth())
	precomputed := cfg.lower != nil
	if precomputed {
		if err := loadPrecomputed(net, tbl, cfg.lower, cfg.upper); err != nil {
			return nil, err
		}
	}

	log := logger.Logger().With().Str("component", "compress").Logger()
	log.Debug().Stringer("mode", cfg.mode).Bool("precomputed", precomputed).
		Int("layers", net.Depth()).Msg("compression started")

	depth := net.Depth()
	removed := make([][]int, depth)
	for k := 0; k < depth; k++ {
		if !precomputed {
			if err := bounds.PropagateLayer(net, box, tbl, k); err != nil {
				return nil, err
			}
			if cfg.mode == Standard {
				t := &tighten.Tightener{Solver: cfg.solver, Workers: cfg.workers}
				if err := t.TightenLayer(ctx, net, box, tbl, k); err != nil {
					return nil, err
				}
			}
		}
		if k == depth-1 {
			break // output layer keeps its bounds but is never pruned
		}
		gone, err := prune.Layer(net, tbl, k)
		if err != nil {
			return nil, err
		}
		removed[k] = gone
		log.Debug().Int("layer", k).Int("removed", len(gone)).Int("live", net.LiveCount(k)).
			Msg("layer pruned")
	}

	res := &Result{Network: net, Removed: removed}
	if !precomputed {
		res.Lower, res.Upper = collectBounds(net, tbl)
	}
	return res, nil
}

// loadPrecomputed maps caller-supplied bound arrays, one per non-collapsed
// layer in order, onto the table.
func loadPrecomputed(net *network.Network, tbl *bounds.Table, lower, upper [][]float64) error {
	next := 0
	for k := 0; k < net.Depth(); k++ {
		if net.Collapsed(k) {
			continue
		}
		idx := net.LiveIndices(k)
		if next >= len(lower) {
			return fmt.Errorf("%w: precomputed bounds cover %d layers, network has more", ErrPrecondition, len(lower))
		}
		lo, hi := lower[next], upper[next]
		if len(lo) != len(idx) || len(hi) != len(idx) {
			return fmt.Errorf("%w: layer %d has %d live neurons, got %d/%d precomputed bounds",
				ErrPrecondition, k, len(idx), len(lo), len(hi))
		}
		for i, o := range idx {
			if lo[i] > hi[i] {
				return fmt.Errorf("%w: layer %d neuron %d has bounds [%g,%g]", ErrPrecondition, k, o, lo[i], hi[i])
			}
			if err := tbl.Set(k, o, bounds.Interval{L: lo[i], U: hi[i]}); err != nil {
				return err
			}
		}
		next++
	}
	if next != len(lower) {
		return fmt.Errorf("%w: %d precomputed bound arrays for %d surviving layers", ErrPrecondition, len(lower), next)
	}
	return nil
}

// collectBounds assembles the per-layer bound arrays of the survivors.
func collectBounds(net *network.Network, tbl *bounds.Table) (lower, upper [][]float64) {
	for k := 0; k < net.Depth(); k++ {
		if net.Collapsed(k) {
			continue
		}
		idx := net.LiveIndices(k)
		lo := make([]float64, len(idx))
		hi := make([]float64, len(idx))
		for i, o := range idx {
			if iv, ok := tbl.Get(k, o); ok {
				lo[i], hi[i] = iv.L, iv.U
			}
		}
		lower = append(lower, lo)
		upper = append(upper, hi)
	}
	return lower, upper
}
