// Package network holds the mutable model of a feedforward ReLU network
// undergoing compression: the affine parameters of every layer plus the
// bookkeeping of which neurons are still live. The weight orientation follows
// the usual fully-connected convention: row j of a layer's weight matrix is
// neuron j, and columns index the outputs of the nearest earlier layer that
// still has live neurons (or the network inputs for the first layer).
package network

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"
)

// Layer owns the affine parameters of one fully-connected layer. A layer
// whose neurons have all been folded away holds nil matrices and is skipped
// by evaluation; its successor's weights already reference an earlier layer.
type Layer struct {
	W *mat.Dense
	B *mat.VecDense
}

// Network is built once from a trained set of weights and mutated in place,
// layer by layer, by the pruner. It is the final output of compression.
type Network struct {
	layers []Layer
	live   []*bitset.BitSet
	orig   []int // original neuron count per layer
	inputs int
}

// New validates the shape chain of the given weights and biases and wraps
// them into a Network. The last layer is the identity-activated output layer,
// all earlier layers are ReLU.
func New(weights []*mat.Dense, biases []*mat.VecDense) (*Network, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("network: no layers")
	}
	if len(weights) != len(biases) {
		return nil, fmt.Errorf("network: %d weight matrices but %d bias vectors", len(weights), len(biases))
	}
	n := &Network{
		layers: make([]Layer, len(weights)),
		live:   make([]*bitset.BitSet, len(weights)),
		orig:   make([]int, len(weights)),
	}
	for k, w := range weights {
		if w == nil || biases[k] == nil {
			return nil, fmt.Errorf("network: layer %d is nil", k)
		}
		rows, cols := w.Dims()
		if biases[k].Len() != rows {
			return nil, fmt.Errorf("network: layer %d has %d neurons but %d bias entries", k, rows, biases[k].Len())
		}
		if k == 0 {
			n.inputs = cols
		} else if prev, _ := weights[k-1].Dims(); cols != prev {
			return nil, fmt.Errorf("network: layer %d expects %d inputs but layer %d has %d neurons", k, cols, k-1, prev)
		}
		n.layers[k] = Layer{W: w, B: biases[k]}
		n.orig[k] = rows
		n.live[k] = bitset.New(uint(rows))
		for i := 0; i < rows; i++ {
			n.live[k].Set(uint(i))
		}
	}
	return n, nil
}

// Depth returns the number of layers, including the output layer.
func (n *Network) Depth() int { return len(n.layers) }

// Inputs returns the number of input features.
func (n *Network) Inputs() int { return n.inputs }

// Layer returns the affine parameters of layer k.
func (n *Network) Layer(k int) *Layer { return &n.layers[k] }

// OriginalCount returns the neuron count layer k had before any pruning.
func (n *Network) OriginalCount(k int) int { return n.orig[k] }

// LiveCount returns the number of neurons still present in layer k.
func (n *Network) LiveCount(k int) int { return int(n.live[k].Count()) }

// Collapsed reports whether every neuron of layer k has been removed.
func (n *Network) Collapsed(k int) bool { return n.live[k].Count() == 0 }

// LiveIndices returns the original indices of the surviving neurons of layer
// k, in order. Row r of the layer's weight matrix is the r-th entry.
func (n *Network) LiveIndices(k int) []int {
	idx := make([]int, 0, n.live[k].Count())
	for i, ok := n.live[k].NextSet(0); ok; i, ok = n.live[k].NextSet(i + 1) {
		idx = append(idx, int(i))
	}
	return idx
}

// RemovedIndices returns the original indices of the neurons pruned from
// layer k, in order.
func (n *Network) RemovedIndices(k int) []int {
	removed := make([]int, 0, n.orig[k]-int(n.live[k].Count()))
	for i := 0; i < n.orig[k]; i++ {
		if !n.live[k].Test(uint(i)) {
			removed = append(removed, i)
		}
	}
	return removed
}

// NearestLivePredecessor returns the index of the nearest layer before k with
// at least one live neuron, chaining over any number of consecutively
// collapsed layers. It returns -1 when layer k takes the network inputs.
func (n *Network) NearestLivePredecessor(k int) int {
	for m := k - 1; m >= 0; m-- {
		if !n.Collapsed(m) {
			return m
		}
	}
	return -1
}

// InputWidth returns the number of inputs layer k currently reads: the live
// count of its nearest live predecessor, or the feature count.
func (n *Network) InputWidth(k int) int {
	if pred := n.NearestLivePredecessor(k); pred >= 0 {
		return n.LiveCount(pred)
	}
	return n.inputs
}

// origIndex maps a current row of layer k back to its original neuron index.
func (n *Network) origIndex(k, row int) uint {
	i, ok := n.live[k].NextSet(0)
	for ; ok && row > 0; i, ok = n.live[k].NextSet(i + 1) {
		row--
	}
	if !ok {
		panic(fmt.Sprintf("network: row out of range in layer %d", k))
	}
	return i
}

// DropNeuron removes row `row` of layer k along with its bias entry and the
// matching column of layer k+1. It must not remove the last neuron of a
// layer; full collapses go through FoldLayer.
func (n *Network) DropNeuron(k, row int) {
	if n.LiveCount(k) <= 1 {
		panic(fmt.Sprintf("network: DropNeuron would empty layer %d, use FoldLayer", k))
	}
	n.live[k].Clear(n.origIndex(k, row))
	n.layers[k].W = removeRow(n.layers[k].W, row)
	n.layers[k].B = removeVecElem(n.layers[k].B, row)
	if k+1 < len(n.layers) {
		n.layers[k+1].W = removeCol(n.layers[k+1].W, row)
	}
}

// FoldLayer removes hidden layer k entirely. The rows listed in activeRows
// are provably identity-activated, so the layer's affine map substitutes
// exactly into layer k+1:
//
//	W' = W_next[:, active] * W_k[active, :]
//	b' = b_next + W_next[:, active] * b_k[active]
//
// All other live rows contribute a constant zero downstream and vanish with
// no adjustment. With an empty active set W' is the zero matrix over layer
// k's own input width. Layer k+1 ends up referencing the nearest earlier
// non-collapsed layer directly.
func (n *Network) FoldLayer(k int, activeRows []int) {
	if k+1 >= len(n.layers) {
		panic("network: FoldLayer on the output layer")
	}
	next := &n.layers[k+1]
	nextRows, _ := next.W.Dims()
	width := n.InputWidth(k)

	folded := mat.NewDense(nextRows, width, nil)
	if len(activeRows) > 0 {
		wNext := pickCols(next.W, activeRows)
		wOwn := pickRows(n.layers[k].W, activeRows)
		folded.Mul(wNext, wOwn)

		shift := mat.NewVecDense(nextRows, nil)
		shift.MulVec(wNext, pickVecElems(n.layers[k].B, activeRows))
		next.B.AddVec(next.B, shift)
	}
	next.W = folded

	n.live[k].ClearAll()
	n.layers[k] = Layer{}
}

// Eval runs the forward pass: ReLU on hidden layers, identity on the output
// layer, skipping collapsed layers. It works on both the original and the
// pruned network, which is what makes function preservation testable.
func (n *Network) Eval(x []float64) ([]float64, error) {
	if len(x) != n.inputs {
		return nil, fmt.Errorf("network: expected %d inputs, got %d", n.inputs, len(x))
	}
	cur := mat.NewVecDense(len(x), append([]float64(nil), x...))
	last := len(n.layers) - 1
	for k, layer := range n.layers {
		if layer.W == nil {
			continue
		}
		rows, _ := layer.W.Dims()
		out := mat.NewVecDense(rows, nil)
		out.MulVec(layer.W, cur)
		out.AddVec(out, layer.B)
		if k != last {
			for i := 0; i < rows; i++ {
				out.SetVec(i, math.Max(0, out.AtVec(i)))
			}
		}
		cur = out
	}
	return append([]float64(nil), cur.RawVector().Data...), nil
}

// Clone returns a deep copy of the network.
func (n *Network) Clone() *Network {
	c := &Network{
		layers: make([]Layer, len(n.layers)),
		live:   make([]*bitset.BitSet, len(n.live)),
		orig:   append([]int(nil), n.orig...),
		inputs: n.inputs,
	}
	for k, layer := range n.layers {
		if layer.W != nil {
			c.layers[k] = Layer{W: mat.DenseCopyOf(layer.W), B: mat.VecDenseCopyOf(layer.B)}
		}
		c.live[k] = n.live[k].Clone()
	}
	return c
}
