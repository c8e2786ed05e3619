package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "compass",
		Short:   "COMPASS - concurrent zoning ordinance extraction",
		Version: version,
		// SilenceUsage avoids dumping flag usage on a driver-level failure.
		SilenceUsage: true,
	}
	root.AddCommand(buildProcessCmd())
	return root
}
