package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Keygen returns the command for generating the session SSH keypair.
//
// This is the standalone flavor of the workflow's keypair step: a fresh
// RSA keypair, private key to the session key path (~/.ssh/id_rsa
// unless configured), public key to public_key.txt for the provisioning
// tool to install.
func Keygen() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the session SSH keypair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Keygen(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: powder-runner.yaml)")

	return cmd
}
