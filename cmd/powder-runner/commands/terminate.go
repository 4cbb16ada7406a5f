package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Terminate returns the command for terminating a named experiment.
func Terminate() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "terminate <experiment>",
		Short: "Terminate an experiment and release its resources",
		Long: `Terminate an experiment and release its resources.

The experiment name is the one printed by 'powder-runner provision' or
'powder-runner run' (for example exp-a1b2c3d).

Examples:
  powder-runner terminate exp-a1b2c3d`,
		// A missing experiment name is a usage error, exit code 3.
		Args: func(cmd *cobra.Command, args []string) error {
			return handlers.Usage(cobra.ExactArgs(1)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Terminate(cmd.Context(), configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")

	return cmd
}
