package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Run returns the command for executing the full experiment workflow.
//
// This is the CI entry point. It runs the strictly sequential workflow:
// decode credentials, generate the session keypair, provision an
// experiment, verify SSH connectivity, set up the node (native mode),
// and collect artifacts. The experiment is terminated and the session
// key scrubbed regardless of the outcome.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML (default: auto-detect powder-runner.yaml)
//	--metrics-file: Node-exporter textfile to write run metrics to
//
// Exit codes: 0 success, 1 a step failed, 2 the experiment could not be
// started, 3 usage error.
func Run() *cobra.Command {
	var (
		configPath  string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full experiment workflow",
		Long: `Run the full experiment workflow.

The workflow provisions a Powder experiment, verifies the node over SSH,
runs node setup (native mode), and collects the run artifacts. Whatever
happens, the experiment is terminated and the session key removed before
the command exits.

Examples:
  # Run with config auto-detection and environment credentials
  powder-runner run

  # Run with an explicit config and metrics output
  powder-runner run -c ci.yaml --metrics-file /var/lib/node_exporter/powder.prom`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), configPath, metricsFile)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this node-exporter textfile")

	return cmd
}
