package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/fluxgraph"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fluxgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fluxgraph version %s\n", strings.TrimSpace(fluxgraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
