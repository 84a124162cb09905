package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tanq16/danzo-hls/internal/clihelpers"
	"github.com/tanq16/danzo-hls/internal/output"
)

var cleanCmd = &cobra.Command{
	Use:   "clean OUTPUT_PATH",
	Short: "Remove leftover .part/.ts files for an interrupted download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := clihelpers.CleanPartials(args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Cleaned up partial files for " + args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
