package provision

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/powderci/powder-runner/internal/experiment"
	"github.com/powderci/powder-runner/internal/portal"
	"github.com/powderci/powder-runner/internal/util/naming"
)

// Native provisions by driving the portal directly: start an
// experiment, wait for ready, pick the named node out of the manifests,
// and write the node address file external consumers expect.
type Native struct {
	// Portal is the authenticated portal client.
	Portal portal.Portal
	// NamePrefix is prepended to the generated experiment name.
	NamePrefix string
	// Project and Profile identify what to instantiate.
	Project string
	Profile string
	// NodeID is the client_id of the node the run targets.
	NodeID string
	// NodeIPFile is where the node address is reported.
	NodeIPFile string

	// PollInterval and ProvisionTimeout pace the readiness wait. Zero
	// values use the experiment package defaults.
	PollInterval     time.Duration
	ProvisionTimeout time.Duration
	// TerminateTimeout bounds the teardown RPC.
	TerminateTimeout time.Duration

	exp *experiment.Experiment
}

var _ Provisioner = (*Native)(nil)

// nameAttempts bounds how many generated names are tried when the
// portal reports a collision.
const nameAttempts = 2

// Provision starts a fresh experiment and blocks until it is ready and
// the target node is addressable. A start rejected because the generated
// name is already taken is retried once with a fresh name. The
// experiment handle is retained so Teardown can release it, including
// after a mid-flight failure.
func (n *Native) Provision(ctx context.Context) (*Result, error) {
	var opts []experiment.Option
	if n.PollInterval > 0 {
		opts = append(opts, experiment.WithPollInterval(n.PollInterval))
	}
	if n.ProvisionTimeout > 0 {
		opts = append(opts, experiment.WithProvisionTimeout(n.ProvisionTimeout))
	}

	var (
		exp    *experiment.Experiment
		status experiment.Status
		name   string
	)

	waitStart := time.Now()
	for attempt := 1; ; attempt++ {
		var err error
		name, err = naming.ExperimentName(n.NamePrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to generate experiment name: %w", err)
		}

		exp, err = experiment.New(n.Portal, name, n.Project, n.Profile, opts...)
		if err != nil {
			return nil, err
		}
		n.exp = exp

		status, err = exp.StartAndWait(ctx)
		if err == nil {
			break
		}
		if attempt < nameAttempts && portal.IsAlreadyExists(err) {
			log.Printf("[Provision] Name %s is already taken, retrying with a fresh one", name)
			continue
		}
		return nil, err
	}
	readyWait := time.Since(waitStart)
	if status != experiment.StatusReady {
		return nil, fmt.Errorf("experiment %s settled at status %s, not ready", name, status)
	}

	node, ok := exp.Node(n.NodeID)
	if !ok {
		return nil, fmt.Errorf("experiment %s is ready but its manifests have no addressable node %q", name, n.NodeID)
	}

	ip := net.ParseIP(node.IPv4)
	if ip == nil {
		return nil, fmt.Errorf("node %s of experiment %s reports invalid address %q", n.NodeID, name, node.IPv4)
	}

	if err := WriteNodeIP(n.NodeIPFile, ip); err != nil {
		return nil, err
	}

	log.Printf("[Provision] Experiment %s ready, node %s at %s", name, n.NodeID, ip)
	return &Result{
		NodeIP:         ip,
		Node:           node,
		ExperimentName: name,
		Manifests:      exp.Manifests(),
		ReadyWait:      readyWait,
	}, nil
}

// Teardown terminates the experiment when one reached a live state.
// Called unconditionally on run teardown; a run whose provisioning
// failed halfway still holds portal resources that must be released.
func (n *Native) Teardown(ctx context.Context) error {
	if n.exp == nil || !n.exp.Live() {
		return nil
	}

	if n.TerminateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.TerminateTimeout)
		defer cancel()
	}

	return n.exp.Terminate(ctx)
}

// Experiment exposes the underlying experiment handle. Nil until
// Provision has generated one.
func (n *Native) Experiment() *experiment.Experiment {
	return n.exp
}
