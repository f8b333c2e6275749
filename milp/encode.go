package milp

import (
	"fmt"
	"math"

	"github.com/kankeinai/Gogeta/bounds"
	"github.com/kankeinai/Gogeta/network"
)

// Encoding is the partial big-M model of the (already pruned) network below
// some layer: input variables bounded by the input box, and per live neuron a
// post-activation variable. It is just large enough to bound any neuron of
// the next live layer.
type Encoding struct {
	Model  *Model
	Inputs []Var

	frontier []Var
}

// Frontier returns the post-activation variables the next layer reads: the
// nearest live layer below the encoding's top, or the inputs themselves.
func (e *Encoding) Frontier() []Var { return e.frontier }

// Encode builds the constraint system of layers < upTo. Per live neuron
// (m, i) with bounds (L, U):
//
//   - stable-active: x = b + W·x_prev, pinned by an equality; always on its
//     affine map, so no indicator is needed.
//   - stable-inactive: x fixed to 0.
//   - unstable: the standard big-M ReLU split with a slack s >= 0 for the
//     negative part and a binary z,
//     x - s = b + W·x_prev
//     0 <= x <= max(0,U)·(1-z)
//     0 <= s <= max(0,-L)·z
//
// A missing interval, or one with U < L, means the bounds pipeline is broken;
// that aborts the encoding rather than being worked around.
func Encode(net *network.Network, box bounds.Box, tbl *bounds.Table, upTo int) (*Encoding, error) {
	m := NewModel()
	inputs := make([]Var, net.Inputs())
	for i := range inputs {
		inputs[i] = m.AddVar(box.Lo[i], box.Hi[i], Continuous, fmt.Sprintf("x0_%d", i))
	}

	prev := inputs
	for l := 0; l < upTo; l++ {
		if net.Collapsed(l) {
			continue
		}
		layer := net.Layer(l)
		idx := net.LiveIndices(l)
		cur := make([]Var, len(idx))
		for r, o := range idx {
			iv, ok := tbl.Get(l, o)
			if !ok {
				return nil, fmt.Errorf("milp: neuron (%d,%d) has no bounds", l, o)
			}
			if iv.L > iv.U {
				return nil, fmt.Errorf("milp: neuron (%d,%d) [%g,%g]: %w", l, o, iv.L, iv.U, bounds.ErrInconsistent)
			}
			uBar := math.Max(0, iv.U)

			switch iv.Stability() {
			case bounds.StableInactive:
				cur[r] = m.AddVar(0, 0, Continuous, fmt.Sprintf("x%d_%d", l+1, o))

			case bounds.StableActive:
				x := m.AddVar(0, uBar, Continuous, fmt.Sprintf("x%d_%d", l+1, o))
				affine := LinExpr{}
				affine.Add(1, x)
				for i, p := range prev {
					if w := layer.W.At(r, i); w != 0 {
						affine.Add(-w, p)
					}
				}
				m.AddConstraint(affine, EQ, layer.B.AtVec(r))
				cur[r] = x

			default:
				lBar := math.Max(0, -iv.L)
				x := m.AddVar(0, uBar, Continuous, fmt.Sprintf("x%d_%d", l+1, o))
				s := m.AddVar(0, lBar, Continuous, fmt.Sprintf("s%d_%d", l+1, o))
				z := m.AddVar(0, 1, Binary, fmt.Sprintf("z%d_%d", l+1, o))

				affine := LinExpr{}
				affine.Add(1, x)
				affine.Add(-1, s)
				for i, p := range prev {
					if w := layer.W.At(r, i); w != 0 {
						affine.Add(-w, p)
					}
				}
				m.AddConstraint(affine, EQ, layer.B.AtVec(r))

				// x <= uBar*(1-z), written as x + uBar*z <= uBar
				off := LinExpr{}
				off.Add(1, x)
				off.Add(uBar, z)
				m.AddConstraint(off, LE, uBar)

				// s <= lBar*z
				on := LinExpr{}
				on.Add(1, s)
				on.Add(-lBar, z)
				m.AddConstraint(on, LE, 0)

				cur[r] = x
			}
		}
		prev = cur
	}
	return &Encoding{Model: m, Inputs: inputs, frontier: prev}, nil
}

// Objective returns the pre-activation expression b + W·x_prev of neuron row
// `row` in layer `layer` over the encoding's frontier variables. The layer
// must be the first live layer at or above the encoding's top, so that its
// weight columns line up with the frontier.
func (e *Encoding) Objective(net *network.Network, layer, row int) LinExpr {
	l := net.Layer(layer)
	obj := LinExpr{Const: l.B.AtVec(row)}
	for i, v := range e.frontier {
		if w := l.W.At(row, i); w != 0 {
			obj.Add(w, v)
		}
	}
	return obj
}
