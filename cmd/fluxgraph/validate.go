package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/fluxgraph/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [project|file]...",
	Short: "Check projects for consistency",
	Long:  `Checks the layer partition, identifiers, connection endpoints and plugin parents of projects. Without arguments, every stored project is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if len(args) == 0 {
			if args, err = app.Store.List(cmd.Context()); err != nil {
				return err
			}
		}

		var failed []error
		for _, ref := range args {
			p, err := app.Project(cmd.Context(), ref)
			if err == nil {
				err = validator.ValidateProject(p)
			}
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n", ref)
				failed = append(failed, fmt.Errorf("%s: %w", ref, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", ref)
		}
		return errors.Join(failed...)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
