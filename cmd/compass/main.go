// Command compass runs the COMPASS ordinance-extraction pipeline: for every
// jurisdiction in a reference list, it retrieves candidate documents, narrows
// them to the relevant ordinance text, extracts structured values, and
// writes the run's combined outputs (spec §6, "CLI contract").
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
