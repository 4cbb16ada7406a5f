package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// DecodeCert returns the command for materializing the portal
// credential from the CLOUDLAB_PEM_BASE64 secret.
func DecodeCert() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "decode-cert",
		Short: "Decode CLOUDLAB_PEM_BASE64 to the credential file",
		Long: `Decode the base64-encoded portal credential to its file.

Reads the CLOUDLAB_PEM_BASE64 environment variable and writes the
decoded PEM bundle to the configured credential path (cloudlab.pem by
default) with owner-only permissions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.DecodeCert(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")

	return cmd
}
