// Package prune folds stable neurons out of a network once their layer's
// bounds are known. Removals are exact: the compressed network computes the
// same function as the original on every input inside the box the bounds
// were proved over.
package prune

import (
	"fmt"
	"sort"

	"github.com/kankeinai/Gogeta/bounds"
	"github.com/kankeinai/Gogeta/logger"
	"github.com/kankeinai/Gogeta/network"
)

// Layer classifies every live neuron of hidden layer k from the bounds table
// and removes the stable ones, returning the original indices it removed.
//
// Stable-inactive neurons always go: their output is the constant zero, so
// dropping their row and the matching downstream column changes nothing.
//
// Stable-active neurons are identity-activated, but substituting one into
// layer k+1 rewires that layer onto layer k's own inputs, which a strictly
// layered network can only express when the whole layer goes. So they fold
// exactly when the layer has no unstable neuron left: the layer is then
// entirely affine and collapses into layer k+1 in one step, after which
// indexing chains past it. With unstable neighbors present they are kept.
func Layer(net *network.Network, tbl *bounds.Table, k int) ([]int, error) {
	if net.Collapsed(k) {
		return nil, nil
	}
	idx := net.LiveIndices(k)
	var inactiveRows, activeRows []int
	for r, o := range idx {
		iv, ok := tbl.Get(k, o)
		if !ok {
			return nil, fmt.Errorf("prune: neuron (%d,%d) has no bounds", k, o)
		}
		switch iv.Stability() {
		case bounds.StableInactive:
			inactiveRows = append(inactiveRows, r)
		case bounds.StableActive:
			activeRows = append(activeRows, r)
		}
	}
	log := logger.Logger().With().Str("component", "prune").Int("layer", k).Logger()

	unstable := len(idx) - len(inactiveRows) - len(activeRows)
	if unstable == 0 {
		removed := append([]int(nil), idx...)
		net.FoldLayer(k, activeRows)
		log.Debug().Int("folded", len(activeRows)).Int("dropped", len(inactiveRows)).
			Msg("layer fully stable, collapsed into successor")
		return removed, nil
	}

	if len(activeRows) > 0 {
		log.Debug().Int("kept", len(activeRows)).
			Msg("stable-active neurons kept, layer has unstable neighbors")
	}
	removed := make([]int, 0, len(inactiveRows))
	// Descending row order keeps the remaining row indices valid.
	for i := len(inactiveRows) - 1; i >= 0; i-- {
		r := inactiveRows[i]
		removed = append(removed, idx[r])
		net.DropNeuron(k, r)
	}
	sort.Ints(removed)
	return removed, nil
}
