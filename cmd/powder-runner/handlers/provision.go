package handlers

import (
	"context"
	"fmt"

	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/portal"
	"github.com/powderci/powder-runner/internal/provision"
)

// Factory function variables for provision - can be replaced in tests.
var (
	// newNativeProvisioner builds the portal-backed provisioner.
	newNativeProvisioner = func(client portal.Portal, cfg *config.Config, timeouts *config.Timeouts) provision.Provisioner {
		return &provision.Native{
			Portal:           client,
			NamePrefix:       cfg.NamePrefix,
			Project:          cfg.Project,
			Profile:          cfg.Profile,
			NodeID:           cfg.NodeID,
			NodeIPFile:       cfg.Provisioner.NodeIPFile,
			PollInterval:     timeouts.PollInterval,
			ProvisionTimeout: timeouts.Provision,
			TerminateTimeout: timeouts.Terminate,
		}
	}
)

// Provision starts an experiment natively and leaves it running. The
// node address lands in node_ip.txt, same as during a full run.
func Provision(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := portalClient(cfg)
	if err != nil {
		return err
	}

	provisioner := newNativeProvisioner(client, cfg, loadTimeouts())

	result, err := provisioner.Provision(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Experiment %s is ready.\n", result.ExperimentName)
	fmt.Printf("  node:    %s (%s)\n", result.Node.ClientID, result.Node.Hostname)
	fmt.Printf("  address: %s (written to %s)\n", result.NodeIP, cfg.Provisioner.NodeIPFile)
	fmt.Println()
	fmt.Printf("Release it with: powder-runner terminate %s\n", result.ExperimentName)

	return nil
}
