package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// InitNode returns the command for setting up a single node by address.
//
// This is the standalone flavor of the workflow's setup step: connect
// to the node over SSH, wait for the profile repository to appear, run
// the setup command chain, and check the log for the success marker.
//
// Exit codes: 0 setup succeeded, 1 setup failed, 2 the node was never
// reachable, 3 bad arguments.
func InitNode() *cobra.Command {
	var (
		configPath string
		nodeIP     string
	)

	cmd := &cobra.Command{
		Use:   "init-node",
		Short: "SSH to a node and run its setup",
		Long: `SSH to a node and run its setup.

Connects to the given address with the configured SSH identity, waits
for the profile repository to land on the node, runs the setup commands,
and verifies the completion marker in the setup log.

Examples:
  powder-runner init-node --ip 155.98.36.11`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.InitNode(cmd.Context(), configPath, nodeIP)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")
	cmd.Flags().StringVar(&nodeIP, "ip", "", "Address of the node to set up")

	return cmd
}
