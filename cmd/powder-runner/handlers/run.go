// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"

	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/metrics"
	"github.com/powderci/powder-runner/internal/runner"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig builds the effective configuration.
	loadConfig = config.Load

	// loadTimeouts reads the timeout knobs from the environment.
	loadTimeouts = config.LoadTimeouts

	// runWorkflow executes the full experiment workflow.
	runWorkflow = func(ctx context.Context, cfg *config.Config, metricsPath string) error {
		r := runner.New(cfg, runner.WithMetrics(metrics.New(metricsPath)))
		return r.Run(ctx)
	}
)

// Run executes the full experiment workflow: credentials, keypair,
// provision, verify, setup (native mode), collect. The experiment is
// terminated and the session key scrubbed regardless of the outcome.
//
// The returned error carries the phase that failed; commands.ExitCode
// maps it to the CI exit-code contract.
func Run(ctx context.Context, configPath, metricsFile string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The flag wins over the config file.
	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}

	return runWorkflow(ctx, cfg, metricsFile)
}
