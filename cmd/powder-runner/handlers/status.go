package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/powderci/powder-runner/internal/experiment"
)

// Status prints the portal's status for a named experiment.
func Status(ctx context.Context, configPath, name string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := portalClient(cfg)
	if err != nil {
		return err
	}

	resp, err := client.ExperimentStatus(ctx, cfg.Project, name)
	if err != nil {
		return fmt.Errorf("failed to query status of %s: %w", name, err)
	}
	if !resp.Success() {
		return fmt.Errorf("portal could not report status for %s: %s", name, strings.TrimSpace(resp.Output))
	}

	status, _, known := experiment.ParseStatusOutput(resp.Output)
	if known {
		fmt.Printf("%s: %s\n", name, status)
	} else {
		fmt.Printf("%s: status not reported yet\n", name)
	}
	if output := strings.TrimSpace(resp.Output); output != "" {
		fmt.Println(output)
	}

	return nil
}
