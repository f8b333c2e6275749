// Package tighten refines interval bounds by solving, per neuron, two small
// optimization problems over the big-M encoding of the pruned network below
// it. The per-neuron solves share no mutable state and run on a bounded
// worker pool; results merge through the bounds table's commutative min/max
// reduction, so sequential and parallel runs are observably equivalent.
package tighten

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kankeinai/Gogeta/bounds"
	"github.com/kankeinai/Gogeta/logger"
	"github.com/kankeinai/Gogeta/milp"
	"github.com/kankeinai/Gogeta/network"
)

// Tightener drives the per-neuron optimization solves of standard mode.
type Tightener struct {
	// Solver is the external optimization backend. Required.
	Solver milp.Solver
	// Workers caps concurrent solves; <= 0 means one per CPU.
	Workers int
}

type task struct {
	row, orig int
	sense     milp.Sense
}

type outcome struct {
	val float64
	err error
}

// TightenLayer tightens the interval bounds of every live neuron of layer k,
// in place in the table. The layer is encoded once; every solve then clones
// the model so workers never share state. A solve that fails (infeasible,
// timeout, numerical trouble, or a value that would invert the interval)
// only costs that neuron its refinement: the interval bound stays and a
// warning is logged.
func (t *Tightener) TightenLayer(ctx context.Context, net *network.Network, box bounds.Box, tbl *bounds.Table, k int) error {
	enc, err := milp.Encode(net, box, tbl, k)
	if err != nil {
		return err
	}
	log := logger.Logger().With().Str("component", "tighten").Int("layer", k).Logger()

	idx := net.LiveIndices(k)
	tasks := make([]task, 0, 2*len(idx))
	for r, o := range idx {
		tasks = append(tasks, task{row: r, orig: o, sense: milp.Minimize}, task{row: r, orig: o, sense: milp.Maximize})
	}
	results := make([]outcome, len(tasks))

	workers := t.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, tk := range tasks {
		i, tk := i, tk
		g.Go(func() error {
			obj := enc.Objective(net, k, tk.row)
			val, err := t.Solver.Solve(gctx, enc.Model.Clone(), obj, tk.sense)
			results[i] = outcome{val: val, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Monotone reduction: apply each optimal value as a one-sided tightening.
	// Order does not matter, min/max commute.
	for i, tk := range tasks {
		res := results[i]
		if res.err != nil {
			log.Warn().Int("neuron", tk.orig).Stringer("sense", tk.sense).Err(res.err).
				Msg("solve failed, keeping interval bound")
			continue
		}
		cur, ok := tbl.Get(k, tk.orig)
		if !ok {
			cur = bounds.Interval{L: res.val, U: res.val}
		}
		iv := cur
		switch tk.sense {
		case milp.Maximize:
			iv.U = res.val
		case milp.Minimize:
			iv.L = res.val
		}
		if iv.L > iv.U {
			// The optimum crossed the opposite bound; that is solver
			// numerics, not a propagation bug. Degrade like any failure.
			log.Warn().Int("neuron", tk.orig).Stringer("sense", tk.sense).
				Float64("value", res.val).Msg("optimal value inverts interval, keeping interval bound")
			continue
		}
		if _, err := tbl.Tighten(k, tk.orig, iv); err != nil {
			return err
		}
	}
	return nil
}
