package handlers

import (
	"fmt"

	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/credentials"
	"github.com/powderci/powder-runner/internal/portal"
)

// Factory function variables for portal access - can be replaced in tests.
var (
	// loadCredential parses the portal credential bundle.
	loadCredential = credentials.Load

	// newPortal builds a portal client from the loaded credential.
	newPortal = func(cfg *config.Config, material *credentials.Material) portal.Portal {
		return portal.NewRealClient(cfg.PortalURL, material.TLSCertificate())
	}
)

// portalClient loads the portal credential and builds an authenticated
// client from it.
func portalClient(cfg *config.Config) (portal.Portal, error) {
	material, err := loadCredential(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load portal credential: %w", err)
	}
	return newPortal(cfg, material), nil
}
