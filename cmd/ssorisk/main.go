// ssorisk scores sanitary sewer overflow records for pipe failure risk.
//
// Usage:
//
//	ssorisk score        # repair, canonicalize, score, and rank the input CSV
//	ssorisk validate     # compute validation metrics for a scored CSV
//	ssorisk add-cities   # reverse-geocode the top risk locations
//	ssorisk run          # score + validate in one pass
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
