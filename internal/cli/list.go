package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thruflo/sortvis/internal/dataset"
	"github.com/thruflo/sortvis/internal/engine"
)

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List the sorting algorithms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for i, alg := range engine.Algorithms() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d  %s\n", i+1, alg)
		}
		return nil
	},
}

var dataSetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the data set presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, t := range dataset.Types() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s  %4d  %s\n", t, t.DefaultSize(), t.Description())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(algorithmsCmd)
	rootCmd.AddCommand(dataSetsCmd)
}
