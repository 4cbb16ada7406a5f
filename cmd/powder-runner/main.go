// Package main is the entry point for the powder-runner CLI.
//
// powder-runner drives CI experiment runs on the Powder/CloudLab
// testbed: it decodes the portal credential, generates a session SSH
// key, provisions an experiment (natively over the portal's XML-RPC
// API or through an external tool), verifies SSH connectivity, runs
// node setup, and collects the run artifacts.
//
// Commands: run, provision, terminate, status, init-node, keygen,
// decode-cert, doctor, init.
//
// For detailed usage information, run:
//
//	powder-runner --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/powderci/powder-runner/cmd/powder-runner/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// SIGINT/SIGTERM cancel the run context; the workflow teardown
	// still terminates the experiment before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(commands.ExitCode(err))
	}
}
