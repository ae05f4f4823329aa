package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"themesniff/internal/runconfig"
)

var standardsFormat string

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "List the known coding standards",
	Long: `List the standard ids accepted by "themesniff run --standards".

Standards marked default are applied when neither the flag nor the config
file selects any.`,
	Run: runStandardsCmd,
}

func init() {
	standardsCmd.Flags().StringVarP(&standardsFormat, "output", "o", "human", "Output format (json, human)")
	rootCmd.AddCommand(standardsCmd)
}

func runStandardsCmd(cmd *cobra.Command, args []string) {
	out, err := FormatStandards(runconfig.DefaultRegistry().All(), OutputFormat(standardsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(exitFailure)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
}
