package handlers

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/powderci/powder-runner/internal/artifacts"
	sshclient "github.com/powderci/powder-runner/internal/platform/ssh"
	"github.com/powderci/powder-runner/internal/setup"
)

// nodeConn is the slice of the SSH connection the setup flow needs.
type nodeConn interface {
	setup.Conn
	Close() error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	connectNode = func(ctx context.Context, cfg *sshclient.Config) (nodeConn, error) {
		client, err := sshclient.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return client.Connect(ctx)
	}
	runSetup = setup.Run
)

// InitNode connects to an already-provisioned node and runs the deploy
// setup flow against it. The node address comes from the caller rather
// than from provisioning state, so this works against experiments
// started elsewhere.
func InitNode(ctx context.Context, configPath, nodeIP string) error {
	trimmed := strings.TrimSpace(nodeIP)
	if trimmed == "" {
		return Usagef("--ip is required")
	}
	if net.ParseIP(trimmed) == nil {
		return Usagef("invalid node address %q", trimmed)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.User == "" {
		return Usagef("ssh user is not configured (set USER or the user config field)")
	}

	sessionKey, err := cfg.SessionKeyPath()
	if err != nil {
		return err
	}
	identity := cfg.SSHIdentityFile(sessionKey)
	key, err := os.ReadFile(identity) // #nosec G304 -- path comes from operator config
	if err != nil {
		return fmt.Errorf("failed to read SSH identity %s: %w", identity, err)
	}

	timeouts := loadTimeouts()
	conn, err := connectNode(ctx, &sshclient.Config{
		Host:           trimmed,
		Port:           cfg.SSH.Port,
		User:           cfg.User,
		PrivateKey:     key,
		Passphrase:     cfg.SSHKeyPassword,
		DialTimeout:    timeouts.SSHDial,
		MaxAttempts:    timeouts.SSHRetries,
		KnownHostsFile: cfg.SSH.KnownHostsFile,
	})
	if err != nil {
		return Unreachable(err)
	}
	defer func() { _ = conn.Close() }()

	setupCtx, cancel := context.WithTimeout(ctx, timeouts.Setup)
	defer cancel()

	result, runErr := runSetup(setupCtx, conn, setup.Options{
		WaitInterval: timeouts.SetupWaitInterval,
		WaitTimeout:  timeouts.SetupWait,
	})
	if result != nil && len(result.Log) > 0 {
		if store, storeErr := artifacts.NewStore(cfg.Artifacts.Dir); storeErr != nil {
			fmt.Printf("Warning: %v\n", storeErr)
		} else if _, saveErr := store.Save(setup.DefaultLogName, result.Log); saveErr != nil {
			fmt.Printf("Warning: %v\n", saveErr)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("Node %s set up.\n", trimmed)
	return nil
}
