// Package commands wires the gogeta CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/kankeinai/Gogeta/utils"
)

var verbose bool

func Execute() error {
	root := &cobra.Command{
		Use:           "gogeta",
		Short:         "Compress feedforward ReLU networks by proving neuron stability",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.Verbose = verbose
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print timing statistics")

	root.AddCommand(compressCmd(), evalCmd())
	return root.Execute()
}
