package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/powderci/powder-runner/internal/artifacts"
	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/credentials"
	sshclient "github.com/powderci/powder-runner/internal/platform/ssh"
	"github.com/powderci/powder-runner/internal/setup"
	"github.com/powderci/powder-runner/internal/util/keygen"
)

// credentialsPhase materializes the CloudLab credential: decode the
// base64 secret when one is delivered, and parse the bundle into a
// portal client certificate in native mode.
type credentialsPhase struct{}

func (credentialsPhase) Name() string { return PhaseCredentials }

func (credentialsPhase) Run(rc *Context) error {
	cfg := rc.Config

	if cfg.PEMBase64 != "" {
		if err := credentials.WriteFromBase64(cfg.PEMBase64, cfg.CertPath); err != nil {
			return err
		}
		rc.Logger.Printf("[Credentials] Credential decoded to %s", cfg.CertPath)
	}

	// The external tool authenticates on its own; only the native
	// provisioner needs the parsed certificate.
	if cfg.Provisioner.Mode != config.ModeNative {
		return nil
	}

	material, err := credentials.Load(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		return err
	}
	rc.State.Credential = material
	return nil
}

// keypairPhase generates the per-run SSH identity and writes it to the
// paths the rest of the run (and the external tool) expect.
type keypairPhase struct{}

func (keypairPhase) Name() string { return PhaseKeypair }

func (keypairPhase) Run(rc *Context) error {
	privatePath, err := rc.Config.SessionKeyPath()
	if err != nil {
		return err
	}
	publicPath := rc.Config.SSH.PublicKeyFile

	keyPair, err := keygen.GenerateRSAKeyPair(keygen.DefaultBits)
	if err != nil {
		return err
	}
	if err := keyPair.WriteFiles(privatePath, publicPath); err != nil {
		return err
	}

	rc.State.PrivateKeyPath = privatePath
	rc.State.PublicKeyPath = publicPath
	rc.Logger.Printf("[Keypair] Session key written to %s, public key to %s", privatePath, publicPath)
	return nil
}

// provisionPhase makes a node available through the configured
// provisioner and records its address.
type provisionPhase struct {
	factory ProvisionerFactory
}

func (provisionPhase) Name() string { return PhaseProvision }

func (p provisionPhase) Run(rc *Context) error {
	provisioner, err := p.factory(rc)
	if err != nil {
		return err
	}
	// Exposed before Provision so teardown can release a half-started
	// experiment.
	rc.Provisioner = provisioner

	result, err := provisioner.Provision(rc)
	if err != nil {
		return err
	}

	rc.State.NodeIP = result.NodeIP.String()
	rc.State.Node = result.Node
	rc.State.ExperimentName = result.ExperimentName
	rc.State.Manifests = result.Manifests
	rc.State.ReadyWait = result.ReadyWait
	rc.Metrics.RecordReadyWait(result.ReadyWait)
	return nil
}

// verifyPhase proves SSH connectivity: connect with bounded retries and
// run a trivial command on the node.
type verifyPhase struct{}

func (verifyPhase) Name() string { return PhaseVerify }

func (verifyPhase) Run(rc *Context) error {
	cfg := rc.Config
	state := rc.State

	if cfg.User == "" {
		return fmt.Errorf("ssh user is not configured (set USER or the user config field)")
	}
	if state.NodeIP == "" {
		return fmt.Errorf("provisioning recorded no node address")
	}

	identity := cfg.SSHIdentityFile(state.PrivateKeyPath)
	// #nosec G304 -- identity path comes from the run configuration
	key, err := os.ReadFile(identity)
	if err != nil {
		return fmt.Errorf("failed to read SSH identity %s: %w", identity, err)
	}

	client, err := sshclient.NewClient(&sshclient.Config{
		Host:           state.NodeIP,
		Port:           cfg.SSH.Port,
		User:           cfg.User,
		PrivateKey:     key,
		Passphrase:     cfg.SSHKeyPassword,
		DialTimeout:    rc.Timeouts.SSHDial,
		MaxAttempts:    rc.Timeouts.SSHRetries,
		KnownHostsFile: cfg.SSH.KnownHostsFile,
		OnAttempt:      func(n int) { state.SSHAttempts = n },
	})
	if err != nil {
		return err
	}
	state.SSH = client

	conn, err := client.Connect(rc)
	rc.Metrics.RecordSSHAttempts(state.SSHAttempts)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	cmdCtx, cancel := context.WithTimeout(rc, rc.Timeouts.Command)
	defer cancel()

	out, err := conn.Run(cmdCtx, "hostname -f")
	if err != nil {
		return err
	}
	state.Hostname = strings.TrimSpace(out)
	rc.Logger.Printf("[Verify] Node %s reachable as %s via %s", state.NodeIP, cfg.User, identity)
	rc.Logger.Printf("[Verify] Hostname: %s", state.Hostname)
	return nil
}

// setupPhase runs the deploy-node setup flow. Native mode only: in
// external mode the tool owns the node beyond the connectivity check.
type setupPhase struct{}

func (setupPhase) Name() string { return PhaseSetup }

func (setupPhase) Run(rc *Context) error {
	conn, err := rc.State.SSH.Connect(rc)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(rc, rc.Timeouts.Setup)
	defer cancel()

	result, err := setup.Run(ctx, conn, setup.Options{
		WaitInterval: rc.Timeouts.SetupWaitInterval,
		WaitTimeout:  rc.Timeouts.SetupWait,
	})
	if result != nil {
		// Whatever log made it back is kept for the artifacts, failed
		// setups included.
		rc.State.SetupLog = result.Log
	}
	return err
}

// collectPhase gathers run artifacts into the local store and mirrors
// them to object storage when configured. Archival never fails a green
// run: everything past store creation is warn-only.
type collectPhase struct{}

func (collectPhase) Name() string { return PhaseCollect }

func (collectPhase) Run(rc *Context) error {
	store, err := artifacts.NewStore(rc.Config.Artifacts.Dir)
	if err != nil {
		return err
	}

	if len(rc.State.SetupLog) > 0 {
		if _, err := store.Save(setup.DefaultLogName, rc.State.SetupLog); err != nil {
			rc.Logger.Printf("[Collect] Warning: %v", err)
		}
	}
	if len(rc.State.Manifests) > 0 {
		if _, err := store.Save("manifests.json", rc.State.Manifests); err != nil {
			rc.Logger.Printf("[Collect] Warning: %v", err)
		}
	}

	nodeIPFile := rc.Config.Provisioner.NodeIPFile
	if _, err := store.CopyFile(filepath.Base(nodeIPFile), nodeIPFile); err != nil {
		rc.Logger.Printf("[Collect] Warning: %v", err)
	}

	rc.Logger.Printf("[Collect] Artifacts in %s", store.Dir())

	if rc.Config.Artifacts.S3.Enabled() {
		uploadArtifacts(rc, store)
	}
	return nil
}

// uploadArtifacts mirrors the store to S3. Failures are logged and
// swallowed; archival must never turn a green run red.
func uploadArtifacts(rc *Context, store *artifacts.Store) {
	s3cfg := rc.Config.Artifacts.S3

	uploader, err := artifacts.NewUploader(s3cfg.Endpoint, s3cfg.Region, s3cfg.Bucket, s3cfg.AccessKey, s3cfg.SecretKey)
	if err != nil {
		rc.Logger.Printf("[Collect] Warning: artifact upload skipped: %v", err)
		return
	}

	prefix := rc.State.ExperimentName
	if prefix == "" {
		prefix = "run-" + time.Now().UTC().Format("20060102-150405")
	}

	if err := uploader.EnsureBucket(rc); err != nil {
		rc.Logger.Printf("[Collect] Warning: artifact upload skipped: %v", err)
		return
	}

	meta := artifacts.RunMetadata{
		Experiment: rc.State.ExperimentName,
		Project:    rc.Config.Project,
		Profile:    rc.Config.Profile,
		NodeIP:     rc.State.NodeIP,
	}
	if err := uploader.WriteRunMetadata(rc, prefix, meta); err != nil {
		rc.Logger.Printf("[Collect] Warning: %v", err)
	}

	uploaded, err := uploader.UploadStore(rc, prefix, store)
	if err != nil {
		rc.Logger.Printf("[Collect] Warning: %v", err)
	}
	rc.Logger.Printf("[Collect] Uploaded %d artifact(s) to s3://%s/%s", uploaded, uploader.Bucket(), prefix)
}
