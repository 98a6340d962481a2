package main

import (
	"fmt"
	"os"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <project|file>",
	Short: "Summarize a project",
	Long:  `Prints the modules, layers and connections of a stored project or of a project document file.`,
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
		e, err := fluxgraph.New(p, fluxgraph.WithRegistry(app.Registry), fluxgraph.WithCompiler(app.Compiler))
		if err != nil {
			return err
		}
		defer e.Close()

		out := fluxgraph.Summary(e)
		if render := tui.NewRenderer(os.Stdout); render != nil {
			if rendered, err := render(out); err == nil {
				out = rendered
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
