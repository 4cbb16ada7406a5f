// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

// Root returns the root command for the powder-runner CLI.
//
// The root command serves as the entry point and parent for all
// subcommands. It provides basic CLI metadata and organizes the command
// hierarchy.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "powder-runner",
		Short:         "Run CI experiments on the Powder/CloudLab testbed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Bad flags are usage errors, exit code 3.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return handlers.Usage(err)
	})

	// Workflow commands
	cmd.AddCommand(Run())
	cmd.AddCommand(Provision())
	cmd.AddCommand(Terminate())
	cmd.AddCommand(Status())
	cmd.AddCommand(InitNode())

	// CI step commands
	cmd.AddCommand(Keygen())
	cmd.AddCommand(DecodeCert())

	// Utility commands
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Init())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
