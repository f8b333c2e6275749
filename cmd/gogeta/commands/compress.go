package commands

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kankeinai/Gogeta/bounds"
	"github.com/kankeinai/Gogeta/compress"
	"github.com/kankeinai/Gogeta/network"
	"github.com/kankeinai/Gogeta/utils"
)

func compressCmd() *cobra.Command {
	var (
		weightsFile string
		outFile     string
		mode        string
		workers     int
		arch        string
	)
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Prove neuron stability over the input box and fold stable neurons out",
		Long: `Compress loads a model file (weights, biases and input box), proves for
every hidden neuron whether it is always active or always inactive over the
box, removes the stable ones without changing the network function, and
writes the pruned model back out.

Standard mode needs an optimization backend and is only reachable through
the library API; the CLI computes interval bounds (fast mode).

Without --weights a random demo network is generated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats utils.TimingStats
			start := time.Now()

			var (
				net *network.Network
				box bounds.Box
				err error
			)
			if weightsFile == "" {
				fmt.Println("No weights file. Running demo mode...")
				net, box, err = demoNetwork(arch)
			} else {
				var mf *utils.ModelFile
				if mf, err = utils.LoadModel(weightsFile); err == nil {
					net, box, err = mf.Build()
				}
			}
			if err != nil {
				return err
			}
			stats.LoadTime = time.Since(start)

			before := liveTotals(net)
			compressStart := time.Now()
			res, err := compress.Compress(cmd.Context(), net, box,
				compress.WithMode(mode), compress.WithWorkers(workers))
			if err != nil {
				return err
			}
			stats.CompressTime = time.Since(compressStart)

			after := liveTotals(res.Network)
			fmt.Printf("Hidden neurons: %d -> %d\n", before, after)
			for k, removed := range res.Removed {
				if len(removed) == 0 {
					continue
				}
				if res.Network.Collapsed(k) {
					fmt.Printf("  layer %d: collapsed (removed %v)\n", k, removed)
				} else {
					fmt.Printf("  layer %d: removed %v\n", k, removed)
				}
			}

			if outFile != "" {
				saveStart := time.Now()
				if err := utils.SaveModel(outFile, utils.FromNetwork(res.Network, box)); err != nil {
					return err
				}
				stats.SaveTime = time.Since(saveStart)
				fmt.Printf("Saved pruned model to %s\n", outFile)
			}

			stats.TotalTime = time.Since(start)
			utils.PrintTimingStats(&stats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&weightsFile, "weights", "w", "", "model JSON file")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file for the pruned model")
	cmd.Flags().StringVarP(&mode, "mode", "m", "fast", "bound computation mode (fast|standard)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves in standard mode (0 = one per CPU)")
	cmd.Flags().StringVar(&arch, "arch", "2,16,16,2", "demo network architecture")
	return cmd
}

// liveTotals counts surviving hidden neurons.
func liveTotals(net *network.Network) int {
	total := 0
	for k := 0; k < net.Depth()-1; k++ {
		total += net.LiveCount(k)
	}
	return total
}

// demoNetwork builds a random network over the box [-1,1]^inputs.
func demoNetwork(archStr string) (*network.Network, bounds.Box, error) {
	arch, err := utils.ParseArchitecture(archStr)
	if err != nil {
		return nil, bounds.Box{}, err
	}
	if err := utils.ValidateArchitecture(arch); err != nil {
		return nil, bounds.Box{}, err
	}
	weights := make([]*mat.Dense, len(arch)-1)
	biases := make([]*mat.VecDense, len(arch)-1)
	for k := 1; k < len(arch); k++ {
		rows, cols := arch[k], arch[k-1]
		weights[k-1] = mat.NewDense(rows, cols, randomArray(rows*cols, float64(cols)))
		biases[k-1] = mat.NewVecDense(rows, randomArray(rows, float64(cols)))
	}
	net, err := network.New(weights, biases)
	if err != nil {
		return nil, bounds.Box{}, err
	}
	lo := make([]float64, arch[0])
	hi := make([]float64, arch[0])
	for i := range lo {
		lo[i], hi[i] = -1, 1
	}
	box, err := bounds.NewBox(lo, hi)
	return net, box, err
}

func randomArray(size int, v float64) []float64 {
	dist := distuv.Uniform{
		Min: -1 / math.Sqrt(v),
		Max: 1 / math.Sqrt(v),
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = dist.Rand()
	}
	return data
}
