package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/kankeinai/Gogeta/bounds"
	"github.com/kankeinai/Gogeta/network"
)

// LayerData is one serializable (weights, bias) pair. Weights are row-major,
// rows = neurons, cols = inputs of the layer.
type LayerData struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Weights []float64 `json:"weights"`
	Bias    []float64 `json:"bias"`
}

// ModelFile is the on-disk JSON form of a layered network plus the input box
// its bounds are proved over.
type ModelFile struct {
	Version string      `json:"version"`
	Lower   []float64   `json:"input_lower"`
	Upper   []float64   `json:"input_upper"`
	Layers  []LayerData `json:"layers"`
}

// SaveModel writes a model file as indented JSON.
func SaveModel(filepath string, mf *ModelFile) error {
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadModel reads a model file from disk.
func LoadModel(filepath string) (*ModelFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var mf ModelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	return &mf, nil
}

// Build converts the file form into a live network and input box.
func (mf *ModelFile) Build() (*network.Network, bounds.Box, error) {
	weights := make([]*mat.Dense, len(mf.Layers))
	biases := make([]*mat.VecDense, len(mf.Layers))
	for k, l := range mf.Layers {
		if len(l.Weights) != l.Rows*l.Cols {
			return nil, bounds.Box{}, fmt.Errorf("layer %d: %d weights for a %dx%d matrix", k, len(l.Weights), l.Rows, l.Cols)
		}
		if len(l.Bias) != l.Rows {
			return nil, bounds.Box{}, fmt.Errorf("layer %d: %d bias entries for %d neurons", k, len(l.Bias), l.Rows)
		}
		weights[k] = mat.NewDense(l.Rows, l.Cols, append([]float64(nil), l.Weights...))
		biases[k] = mat.NewVecDense(l.Rows, append([]float64(nil), l.Bias...))
	}
	net, err := network.New(weights, biases)
	if err != nil {
		return nil, bounds.Box{}, err
	}
	box, err := bounds.NewBox(mf.Lower, mf.Upper)
	if err != nil {
		return nil, bounds.Box{}, err
	}
	return net, box, nil
}

// FromNetwork converts a (possibly pruned) network back into the file form.
// Collapsed layers are dropped; their successors already reference an
// earlier layer.
func FromNetwork(net *network.Network, box bounds.Box) *ModelFile {
	mf := &ModelFile{
		Version: "1",
		Lower:   append([]float64(nil), box.Lo...),
		Upper:   append([]float64(nil), box.Hi...),
	}
	for k := 0; k < net.Depth(); k++ {
		layer := net.Layer(k)
		if layer.W == nil {
			continue
		}
		rows, cols := layer.W.Dims()
		ld := LayerData{
			Rows:    rows,
			Cols:    cols,
			Weights: make([]float64, 0, rows*cols),
			Bias:    make([]float64, rows),
		}
		for i := 0; i < rows; i++ {
			ld.Weights = append(ld.Weights, layer.W.RawRowView(i)...)
			ld.Bias[i] = layer.B.AtVec(i)
		}
		mf.Layers = append(mf.Layers, ld)
	}
	return mf
}
