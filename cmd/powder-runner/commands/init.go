package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Init returns the command for interactively creating a runner
// configuration.
//
// This command guides users through creating powder-runner.yaml with an
// interactive wizard: project and profile, experiment naming, SSH user,
// and the provisioning mode.
//
// Flags:
//
//	--output, -o: Path to output file (default "powder-runner.yaml")
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a runner configuration",
		Long: `Interactively create a runner configuration file.

The wizard asks about:

  - Portal project and profile
  - Experiment name prefix and node name
  - SSH user
  - Provisioning mode (native portal RPC or an external tool)

Secrets (PWORD, CLOUDLAB_PEM_BASE64, KEYPWORD) are never written to the
file; they stay in the environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "powder-runner.yaml", "Output file path")

	return cmd
}
