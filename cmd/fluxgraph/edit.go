package main

import (
	"os"

	"github.com/aretw0/fluxgraph/internal/cli"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <project>",
	Short: "Edit a project interactively",
	Long: `Opens a project (creating it if needed) and reads editing commands from the terminal,
or from a script with --script. Type 'help' for the command list. The project is saved on exit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		headless, _ := cmd.Flags().GetBool("headless")
		opts := cli.EditOptions{
			Project:  args[0],
			Headless: headless,
			Output:   os.Stdout,
		}
		if script, _ := cmd.Flags().GetString("script"); script != "" {
			f, err := os.Open(script)
			if err != nil {
				return err
			}
			defer f.Close()
			opts.Input = f
		}
		return cli.RunEdit(app, opts)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().Bool("headless", false, "No banner, prompt or markdown rendering")
	editCmd.Flags().String("script", "", "Read commands from a file instead of stdin")
}
