package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Provision returns the command for starting an experiment without
// running the rest of the workflow.
//
// The experiment is left running; use 'powder-runner terminate' to
// release it. The provisioned node's address is written to
// node_ip.txt, same as during a full run.
func Provision() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Start an experiment and leave it running",
		Long: `Start an experiment on the portal and wait until it is ready.

Unlike 'run', the experiment is NOT terminated afterwards: the command
provisions, writes the node address to node_ip.txt, and exits. This is
for interactive work against a live testbed node.

Examples:
  # Provision using the default profile from powder-runner.yaml
  powder-runner provision

  # Remember to release the experiment when done:
  powder-runner terminate exp-a1b2c3d`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")

	return cmd
}
