package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Doctor returns the command for diagnosing the run environment.
//
// Flags:
//
//	--json: machine-readable output
func Doctor() *cobra.Command {
	var (
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the run environment",
		Long: `Diagnose the run environment.

Checks the pieces a run needs before it starts: the configuration
loads and validates, the SSH user is set, the portal credential file
exists and parses (native mode), the external tool is on PATH
(external mode), and the portal endpoint is reachable.

Examples:
  # Human-readable report
  powder-runner doctor

  # Machine-readable, for CI preflight jobs
  powder-runner doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}
