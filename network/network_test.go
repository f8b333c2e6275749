package network

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func twoLayerNet(t *testing.T) *Network {
	t.Helper()
	// 2 inputs -> 2 hidden -> 1 output
	w1 := mat.NewDense(2, 2, []float64{1, 1, 1, -1})
	b1 := mat.NewVecDense(2, []float64{0, 0})
	w2 := mat.NewDense(1, 2, []float64{1, 1})
	b2 := mat.NewVecDense(1, []float64{0.5})
	net, err := New([]*mat.Dense{w1, w2}, []*mat.VecDense{b1, b2})
	if err != nil {
		t.Fatalf("building network: %v", err)
	}
	return net
}

func TestNew_ShapeMismatch(t *testing.T) {
	w1 := mat.NewDense(2, 2, nil)
	b1 := mat.NewVecDense(2, nil)
	w2 := mat.NewDense(1, 3, nil) // expects 3 inputs, layer 0 has 2 neurons
	b2 := mat.NewVecDense(1, nil)
	if _, err := New([]*mat.Dense{w1, w2}, []*mat.VecDense{b1, b2}); err == nil {
		t.Fatalf("expected shape error")
	}
	if _, err := New([]*mat.Dense{w1}, []*mat.VecDense{b1, b2}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := New(nil, nil); err == nil {
		t.Fatalf("expected empty network error")
	}
}

func TestEval_Feedforward(t *testing.T) {
	net := twoLayerNet(t)
	out, err := net.Eval([]float64{1, 2})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	// hidden: relu(3)=3, relu(-1)=0; output: 3+0+0.5
	if len(out) != 1 || out[0] != 3.5 {
		t.Fatalf("got %v, want [3.5]", out)
	}

	if _, err := net.Eval([]float64{1}); err == nil {
		t.Fatalf("expected input length error")
	}
}

func TestDropNeuron(t *testing.T) {
	net := twoLayerNet(t)
	net.DropNeuron(0, 0)

	if got := net.LiveCount(0); got != 1 {
		t.Fatalf("live count = %d, want 1", got)
	}
	if got := net.LiveIndices(0); len(got) != 1 || got[0] != 1 {
		t.Fatalf("live indices = %v, want [1]", got)
	}
	if got := net.RemovedIndices(0); len(got) != 1 || got[0] != 0 {
		t.Fatalf("removed indices = %v, want [0]", got)
	}
	if r, c := net.Layer(0).W.Dims(); r != 1 || c != 2 {
		t.Fatalf("layer 0 weights %dx%d, want 1x2", r, c)
	}
	if r, c := net.Layer(1).W.Dims(); r != 1 || c != 1 {
		t.Fatalf("layer 1 weights %dx%d, want 1x1", r, c)
	}
	// surviving row must be the old row 1
	if got := net.Layer(0).W.At(0, 1); got != -1 {
		t.Fatalf("surviving weight = %v, want -1", got)
	}
}

func TestFoldLayer_ActiveSubstitution(t *testing.T) {
	// hidden neuron is identity-activated: y = 2*(x1+x2+3) + 1
	w1 := mat.NewDense(1, 2, []float64{1, 1})
	b1 := mat.NewVecDense(1, []float64{3})
	w2 := mat.NewDense(1, 1, []float64{2})
	b2 := mat.NewVecDense(1, []float64{1})
	net, err := New([]*mat.Dense{w1, w2}, []*mat.VecDense{b1, b2})
	if err != nil {
		t.Fatalf("building network: %v", err)
	}

	net.FoldLayer(0, []int{0})

	if !net.Collapsed(0) {
		t.Fatalf("layer 0 not collapsed")
	}
	out := net.Layer(1)
	if r, c := out.W.Dims(); r != 1 || c != 2 {
		t.Fatalf("output weights %dx%d, want 1x2", r, c)
	}
	if out.W.At(0, 0) != 2 || out.W.At(0, 1) != 2 {
		t.Fatalf("folded weights = %v, want [2 2]", out.W.RawRowView(0))
	}
	if got := out.B.AtVec(0); got != 7 { // 1 + 2*3
		t.Fatalf("folded bias = %v, want 7", got)
	}

	// end-to-end function must be unchanged on any input
	got, err := net.Eval([]float64{0.25, -0.5})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	want := 2*(0.25-0.5+3) + 1
	if got[0] != want {
		t.Fatalf("eval = %v, want %v", got[0], want)
	}
}

func TestFoldLayer_AllInactive(t *testing.T) {
	net := twoLayerNet(t)
	net.FoldLayer(0, nil)

	out := net.Layer(1)
	if r, c := out.W.Dims(); r != 1 || c != 2 {
		t.Fatalf("output weights %dx%d, want 1x2 over the inputs", r, c)
	}
	if out.W.At(0, 0) != 0 || out.W.At(0, 1) != 0 {
		t.Fatalf("folded weights not zero: %v", out.W.RawRowView(0))
	}
	if got := out.B.AtVec(0); got != 0.5 {
		t.Fatalf("output bias changed: %v", got)
	}
	got, err := net.Eval([]float64{1, 2})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got[0] != 0.5 {
		t.Fatalf("eval = %v, want 0.5", got[0])
	}
}

func TestNearestLivePredecessor_Chains(t *testing.T) {
	// 2 inputs -> 2 -> 2 -> 1 output
	w1 := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	b1 := mat.NewVecDense(2, nil)
	w2 := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	b2 := mat.NewVecDense(2, nil)
	w3 := mat.NewDense(1, 2, []float64{1, 1})
	b3 := mat.NewVecDense(1, nil)
	net, err := New([]*mat.Dense{w1, w2, w3}, []*mat.VecDense{b1, b2, b3})
	if err != nil {
		t.Fatalf("building network: %v", err)
	}

	if got := net.NearestLivePredecessor(2); got != 1 {
		t.Fatalf("predecessor of 2 = %d, want 1", got)
	}

	net.FoldLayer(0, []int{0, 1})
	if got := net.NearestLivePredecessor(1); got != -1 {
		t.Fatalf("predecessor of 1 = %d, want -1 (inputs)", got)
	}

	net.FoldLayer(1, []int{0, 1})
	if got := net.NearestLivePredecessor(2); got != -1 {
		t.Fatalf("predecessor of 2 = %d, want -1 after double collapse", got)
	}
	if got := net.InputWidth(2); got != 2 {
		t.Fatalf("input width of 2 = %d, want 2", got)
	}

	// the network is now a single affine map of the inputs
	got, err := net.Eval([]float64{0.5, 0.25})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got[0] != 0.75 {
		t.Fatalf("eval = %v, want 0.75", got[0])
	}
}

func TestClone_Independent(t *testing.T) {
	net := twoLayerNet(t)
	clone := net.Clone()

	net.DropNeuron(0, 0)
	if clone.LiveCount(0) != 2 {
		t.Fatalf("clone live count changed with original")
	}
	if r, _ := clone.Layer(0).W.Dims(); r != 2 {
		t.Fatalf("clone weights changed with original")
	}
}
