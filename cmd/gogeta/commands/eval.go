package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kankeinai/Gogeta/utils"
)

func evalCmd() *cobra.Command {
	var (
		weightsFile string
		inputFile   string
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the forward pass of a model on one input vector",
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := utils.LoadModel(weightsFile)
			if err != nil {
				return err
			}
			net, _, err := mf.Build()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			var x []float64
			if err := json.Unmarshal(data, &x); err != nil {
				return fmt.Errorf("failed to unmarshal input: %w", err)
			}

			out, err := net.Eval(x)
			if err != nil {
				return err
			}
			fmt.Printf("Output: %v\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&weightsFile, "weights", "w", "", "model JSON file")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "JSON file with the input vector")
	_ = cmd.MarkFlagRequired("weights")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
