package tighten

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kankeinai/Gogeta/bounds"
	"github.com/kankeinai/Gogeta/milp"
	"github.com/kankeinai/Gogeta/milp/milptest"
	"github.com/kankeinai/Gogeta/network"
)

func unstableNet(t *testing.T) (*network.Network, bounds.Box, *bounds.Table) {
	t.Helper()
	w1 := mat.NewDense(1, 2, []float64{1, -1})
	b1 := mat.NewVecDense(1, nil)
	w2 := mat.NewDense(1, 1, []float64{1})
	b2 := mat.NewVecDense(1, nil)
	net, err := network.New([]*mat.Dense{w1, w2}, []*mat.VecDense{b1, b2})
	require.NoError(t, err)

	box, err := bounds.NewBox([]float64{-1, -1}, []float64{1, 1})
	require.NoError(t, err)

	tbl := bounds.NewTable(net.Depth())
	require.NoError(t, bounds.PropagateLayer(net, box, tbl, 0))
	return net, box, tbl
}

func TestTightenLayer_Refines(t *testing.T) {
	net, box, tbl := unstableNet(t)

	tt := &Tightener{Solver: milptest.BoxSolver{Shrink: 0.5}, Workers: 1}
	require.NoError(t, tt.TightenLayer(context.Background(), net, box, tbl, 0))

	iv, ok := tbl.Get(0, 0)
	require.True(t, ok)
	assert.Equal(t, bounds.Interval{L: -1, U: 1}, iv)
}

func TestTightenLayer_SolveFailureKeepsIntervalBound(t *testing.T) {
	net, box, tbl := unstableNet(t)

	fail := milptest.FailSolver{Kind: milp.Timeout, Reason: "node limit reached"}
	tt := &Tightener{Solver: fail, Workers: 2}
	require.NoError(t, tt.TightenLayer(context.Background(), net, box, tbl, 0),
		"per-neuron solver failures must not abort the run")

	iv, _ := tbl.Get(0, 0)
	assert.Equal(t, bounds.Interval{L: -2, U: 2}, iv)
}

func TestTightenLayer_InvertedOptimumKept(t *testing.T) {
	net, box, tbl := unstableNet(t)

	// a broken backend reports a minimum above the proven maximum and vice
	// versa; both values must be discarded
	inverted := milptest.Func(func(_ context.Context, _ *milp.Model, _ milp.LinExpr, sense milp.Sense) (float64, error) {
		if sense == milp.Minimize {
			return 5, nil
		}
		return -5, nil
	})
	tt := &Tightener{Solver: inverted, Workers: 1}
	require.NoError(t, tt.TightenLayer(context.Background(), net, box, tbl, 0))

	iv, _ := tbl.Get(0, 0)
	assert.Equal(t, bounds.Interval{L: -2, U: 2}, iv)
}

func TestTightenLayer_NeverWidens(t *testing.T) {
	net, box, tbl := unstableNet(t)

	loose := milptest.Func(func(_ context.Context, _ *milp.Model, _ milp.LinExpr, sense milp.Sense) (float64, error) {
		if sense == milp.Minimize {
			return -100, nil
		}
		return 100, nil
	})
	tt := &Tightener{Solver: loose}
	require.NoError(t, tt.TightenLayer(context.Background(), net, box, tbl, 0))

	iv, _ := tbl.Get(0, 0)
	assert.Equal(t, bounds.Interval{L: -2, U: 2}, iv)
}

func TestTightenLayer_ParallelMatchesSequential(t *testing.T) {
	build := func() (*network.Network, bounds.Box, *bounds.Table) {
		w1 := mat.NewDense(3, 2, []float64{
			1, 1,
			1, 1,
			1, -1,
		})
		b1 := mat.NewVecDense(3, []float64{-3, 3, 0})
		w2 := mat.NewDense(1, 3, []float64{1, 1, 1})
		b2 := mat.NewVecDense(1, nil)
		net, err := network.New([]*mat.Dense{w1, w2}, []*mat.VecDense{b1, b2})
		require.NoError(t, err)
		box, err := bounds.NewBox([]float64{-1, -1}, []float64{1, 1})
		require.NoError(t, err)
		tbl := bounds.NewTable(net.Depth())
		require.NoError(t, bounds.PropagateLayer(net, box, tbl, 0))
		return net, box, tbl
	}

	netSeq, boxSeq, tblSeq := build()
	seq := &Tightener{Solver: milptest.BoxSolver{Shrink: 0.75}, Workers: 1}
	require.NoError(t, seq.TightenLayer(context.Background(), netSeq, boxSeq, tblSeq, 0))

	netPar, boxPar, tblPar := build()
	par := &Tightener{Solver: milptest.BoxSolver{Shrink: 0.75}, Workers: 8}
	require.NoError(t, par.TightenLayer(context.Background(), netPar, boxPar, tblPar, 0))

	for _, o := range netSeq.LiveIndices(0) {
		s, ok := tblSeq.Get(0, o)
		require.True(t, ok)
		p, ok := tblPar.Get(0, o)
		require.True(t, ok)
		assert.Equal(t, s, p, "neuron %d", o)
	}
}
