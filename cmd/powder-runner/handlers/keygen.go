package handlers

import (
	"fmt"

	"github.com/powderci/powder-runner/internal/util/keygen"
)

// Factory function variables - can be replaced in tests for dependency injection.
var generateKeyPair = keygen.GenerateRSAKeyPair

// Keygen writes a fresh session SSH keypair to the configured paths.
func Keygen(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	privatePath, err := cfg.SessionKeyPath()
	if err != nil {
		return err
	}

	pair, err := generateKeyPair(keygen.DefaultBits)
	if err != nil {
		return err
	}
	if err := pair.WriteFiles(privatePath, cfg.SSH.PublicKeyFile); err != nil {
		return err
	}

	fmt.Printf("Private key: %s\n", privatePath)
	fmt.Printf("Public key:  %s\n", cfg.SSH.PublicKeyFile)
	return nil
}
