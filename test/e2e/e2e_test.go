package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/credentials"
	"github.com/powderci/powder-runner/internal/portal"
	"github.com/powderci/powder-runner/internal/provision"
)

// loadPortalCredential decodes the base64 PEM bundle from the
// environment into a throwaway file and loads it. The test is skipped
// when the secret is absent so the suite stays green without testbed
// access.
func loadPortalCredential(t *testing.T) (*config.Config, *credentials.Material) {
	t.Helper()

	cfg := config.New()
	cfg.ApplyEnvOverlay()
	if cfg.PEMBase64 == "" {
		t.Skipf("%s not set, skipping e2e test", config.EnvPEMBase64)
	}

	path := filepath.Join(t.TempDir(), "cloudlab.pem")
	if err := credentials.WriteFromBase64(cfg.PEMBase64, path); err != nil {
		t.Fatalf("failed to decode credential: %v", err)
	}
	material, err := credentials.Load(path, cfg.CertPassword)
	if err != nil {
		t.Fatalf("failed to load credential: %v", err)
	}
	return cfg, material
}

func TestE2E_ExperimentLifecycle(t *testing.T) {
	cfg, material := loadPortalCredential(t)

	client := portal.NewRealClient(cfg.PortalURL, material.TLSCertificate())
	nodeIPFile := filepath.Join(t.TempDir(), "node_ip.txt")

	p := &provision.Native{
		Portal:           client,
		NamePrefix:       "e2e-",
		Project:          cfg.Project,
		Profile:          cfg.Profile,
		NodeID:           cfg.NodeID,
		NodeIPFile:       nodeIPFile,
		PollInterval:     30 * time.Second,
		ProvisionTimeout: 45 * time.Minute,
		TerminateTimeout: 5 * time.Minute,
	}

	ctx := context.Background()

	// Teardown runs even when Provision fails halfway; a dead
	// experiment must not keep holding testbed resources.
	defer func() {
		t.Log("Terminating experiment...")
		if err := p.Teardown(context.Background()); err != nil {
			t.Errorf("Teardown failed: %v", err)
		}
	}()

	t.Logf("Provisioning experiment (project %s, profile %s)...", cfg.Project, cfg.Profile)
	result, err := p.Provision(ctx)
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}

	t.Logf("Experiment %s ready after %v, node %s at %s",
		result.ExperimentName, result.ReadyWait, result.Node.ClientID, result.NodeIP)

	if result.NodeIP == nil {
		t.Error("Expected a node IP, got none")
	}
	data, err := os.ReadFile(nodeIPFile)
	if err != nil {
		t.Fatalf("Node IP file not written: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != result.NodeIP.String() {
		t.Errorf("Node IP file holds %q, want %q", got, result.NodeIP)
	}
}
