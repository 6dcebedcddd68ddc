package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ssorisk",
	Short: "Pipe failure risk scoring for sanitary sewer overflow records",
	Long: "ssorisk normalizes LA County sanitary sewer overflow records,\n" +
		"repairs data-entry errors in pipe ages, canonicalizes material names,\n" +
		"and ranks every spill location by failure risk.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(addCitiesCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}
