package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/powderci/powder-runner/internal/config"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard runs the interactive configuration wizard.
	runWizard = config.RunWizard

	// writeConfig writes the config to a file.
	writeConfig = config.Save
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if fileExists(outputPath) {
		fmt.Printf("Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	cfg := result.ToConfig()

	if err := writeConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)

	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("powder-runner - CI experiments on the Powder testbed")
	fmt.Println("=====================================================")
	fmt.Println()
	fmt.Println("This wizard creates a run configuration with sensible defaults.")
	fmt.Println("Secrets are never written to the file; they stay in the environment.")
	fmt.Println()
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	// Summary
	fmt.Println("Run Summary")
	fmt.Println("-----------")
	fmt.Printf("  Project:  %s\n", cfg.Project)
	fmt.Printf("  Profile:  %s\n", cfg.Profile)
	fmt.Printf("  Prefix:   %s\n", cfg.NamePrefix)
	fmt.Printf("  Node:     %s\n", cfg.NodeID)
	fmt.Printf("  SSH user: %s\n", cfg.User)
	fmt.Printf("  Mode:     %s\n", cfg.Provisioner.Mode)
	if cfg.Provisioner.Command != "" {
		fmt.Printf("  Command:  %s\n", cfg.Provisioner.Command)
	}
	fmt.Println()

	// Next steps
	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Export your CloudLab credential and its password:")
	fmt.Printf("     export %s=<base64 PEM bundle>\n", config.EnvPEMBase64)
	fmt.Printf("     export %s=<certificate password>\n", config.EnvCertPassword)
	fmt.Println()
	fmt.Println("  2. Check the environment:")
	fmt.Println("     powder-runner doctor")
	fmt.Println()
	fmt.Println("  3. Run an experiment:")
	fmt.Println("     powder-runner run")
	fmt.Println()
}
