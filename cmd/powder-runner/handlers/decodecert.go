package handlers

import (
	"fmt"

	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/credentials"
)

// Factory function variables - can be replaced in tests for dependency injection.
var writeCredential = credentials.WriteFromBase64

// DecodeCert materializes the base64 PEM bundle from the environment
// into the configured credential file.
func DecodeCert(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.PEMBase64 == "" {
		return Usagef("%s is not set", config.EnvPEMBase64)
	}

	if err := writeCredential(cfg.PEMBase64, cfg.CertPath); err != nil {
		return err
	}

	fmt.Printf("Credential written to %s\n", cfg.CertPath)
	return nil
}
