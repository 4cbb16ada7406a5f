package provision

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"time"
)

// External provisions by delegating to a configured command, typically
// the CI pipeline's provisioning script. The command receives the
// credential environment and must write the node address file and exit
// zero on success; everything else about it is opaque.
type External struct {
	// Command is the provisioning tool. Resolved via PATH when relative.
	Command string
	// Args are passed to the tool verbatim.
	Args []string
	// Env entries (KEY=VALUE) are appended to the inherited environment.
	Env []string
	// NodeIPFile is where the tool reports the node address.
	NodeIPFile string

	// Stdout and Stderr receive the tool's output. Nil means the
	// runner's own streams, so CI logs show provisioning progress live.
	Stdout io.Writer
	Stderr io.Writer
}

var _ Provisioner = (*External)(nil)

// Provision runs the tool and validates its node address report. A
// stale address file from an earlier run is removed first so a tool
// that silently writes nothing cannot pass the check.
func (e *External) Provision(ctx context.Context) (*Result, error) {
	if e.Command == "" {
		return nil, fmt.Errorf("provisioning command is not configured")
	}

	if err := os.Remove(e.NodeIPFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale %s: %w", e.NodeIPFile, err)
	}

	log.Printf("[Provision] Running %s with %d extra env var(s)", e.Command, len(e.Env))
	start := time.Now()

	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("provisioning command %s failed: %w", e.Command, err)
	}

	ip, err := ReadNodeIP(e.NodeIPFile)
	if err != nil {
		return nil, fmt.Errorf("provisioning command %s exited zero but left no usable node address: %w", e.Command, err)
	}

	log.Printf("[Provision] Node address %s reported in %s", ip, e.NodeIPFile)
	return &Result{NodeIP: ip, ReadyWait: time.Since(start)}, nil
}

// Teardown is a no-op: the tool's contract has no release step, and the
// runner owns no portal handle for resources the tool acquired.
func (e *External) Teardown(context.Context) error {
	return nil
}
