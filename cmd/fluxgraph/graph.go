package main

import (
	"fmt"

	"github.com/aretw0/fluxgraph/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <project|file>",
	Short: "Export the workflow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph LR) of the workflow. Layers are drawn as subgraphs.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		p, err := app.Project(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if selected, _ := cmd.Flags().GetStringSlice("select"); len(selected) > 0 {
			overlay = &graph.GraphOverlay{Selected: selected}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(p, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("select", nil, "Module ids to highlight")
}
