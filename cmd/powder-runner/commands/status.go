package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Status returns the command for a one-shot experiment status probe.
func Status() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <experiment>",
		Short: "Show the portal's status for an experiment",
		Long: `Show the portal's status for an experiment.

Prints the parsed status (provisioning, provisioned, ready, failed)
along with the portal's raw status text.

Examples:
  powder-runner status exp-a1b2c3d`,
		// A missing experiment name is a usage error, exit code 3.
		Args: func(cmd *cobra.Command, args []string) error {
			return handlers.Usage(cobra.ExactArgs(1)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Status(cmd.Context(), configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")

	return cmd
}
