package handlers

import (
	"context"
	"fmt"
	"strings"
)

// Terminate releases a named experiment's resources.
func Terminate(ctx context.Context, configPath, name string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := portalClient(cfg)
	if err != nil {
		return err
	}

	resp, err := client.TerminateExperiment(ctx, cfg.Project, name)
	if err != nil {
		return fmt.Errorf("failed to terminate experiment %s: %w", name, err)
	}
	if !resp.Success() {
		return fmt.Errorf("portal refused to terminate %s: %s", name, strings.TrimSpace(resp.Output))
	}

	fmt.Printf("Experiment %s terminated.\n", name)
	return nil
}
