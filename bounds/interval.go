package bounds

import (
	"fmt"
	"math"

	"github.com/kankeinai/Gogeta/network"
)

// PropagateLayer computes one-shot interval bounds for every live neuron of
// layer k and records them in the table. For each neuron j,
//
//	U[k,j] = sum_i max(W[j,i]*hi_i, W[j,i]*lo_i) + b[j]
//	L[k,j] = sum_i min(W[j,i]*hi_i, W[j,i]*lo_i) + b[j]
//
// where (lo_i, hi_i) are the post-activation bounds of the nearest earlier
// non-collapsed layer: the raw input box for the first live layer, the
// ReLU-clamped (max(0,L), max(0,U)) intervals otherwise. The bounds are sound
// but loose, since correlations between inputs are ignored; they always run,
// even in standard mode, to seed the tightener.
func PropagateLayer(net *network.Network, box Box, tbl *Table, k int) error {
	lo, hi, err := inputBounds(net, box, tbl, k)
	if err != nil {
		return err
	}
	layer := net.Layer(k)
	for r, o := range net.LiveIndices(k) {
		l, u := layer.B.AtVec(r), layer.B.AtVec(r)
		for i := range lo {
			a, b := layer.W.At(r, i)*lo[i], layer.W.At(r, i)*hi[i]
			l += math.Min(a, b)
			u += math.Max(a, b)
		}
		if err := tbl.Set(k, o, Interval{L: l, U: u}); err != nil {
			return err
		}
	}
	return nil
}

// inputBounds resolves the post-activation enclosure layer k reads from,
// chaining past collapsed layers.
func inputBounds(net *network.Network, box Box, tbl *Table, k int) (lo, hi []float64, err error) {
	pred := net.NearestLivePredecessor(k)
	if pred < 0 {
		return box.Lo, box.Hi, nil
	}
	idx := net.LiveIndices(pred)
	lo = make([]float64, len(idx))
	hi = make([]float64, len(idx))
	for i, o := range idx {
		iv, ok := tbl.Get(pred, o)
		if !ok {
			return nil, nil, fmt.Errorf("bounds: neuron (%d,%d) has no bounds yet", pred, o)
		}
		lo[i] = math.Max(0, iv.L)
		hi[i] = math.Max(0, iv.U)
	}
	return lo, hi, nil
}
